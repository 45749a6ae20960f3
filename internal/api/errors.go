package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed failure taxonomy every pipeline call resolves to.
type Kind int

const (
	KindUnknown Kind = iota
	KindNoInternetConnection
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindServerError
	KindAPIError
	KindDecodingError
	KindTransportError
	KindCancelled
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	KindNoInternetConnection: "no_internet_connection",
	KindUnauthorized:         "unauthorized",
	KindForbidden:            "forbidden",
	KindNotFound:             "not_found",
	KindServerError:          "server_error",
	KindAPIError:             "api_error",
	KindDecodingError:        "decoding_error",
	KindTransportError:       "transport_error",
	KindCancelled:            "cancelled",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the only error type the pipeline returns.
type Error struct {
	Kind Kind
	// Status is the HTTP status for Unauthorized, Forbidden, NotFound,
	// ServerError and ApiError-from-status; zero otherwise.
	Status int
	// Message is the server or envelope message, if any.
	Message string
	// Cause is the underlying failure, kept for diagnostics.
	Cause error
}

// Sentinels for errors.Is. Matching compares Kind only.
var (
	ErrNoInternetConnection = &Error{Kind: KindNoInternetConnection}
	ErrUnauthorized         = &Error{Kind: KindUnauthorized}
	ErrForbidden            = &Error{Kind: KindForbidden}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrServerError          = &Error{Kind: KindServerError}
	ErrAPIError             = &Error{Kind: KindAPIError}
	ErrDecoding             = &Error{Kind: KindDecodingError}
	ErrTransport            = &Error{Kind: KindTransportError}
	ErrCancelled            = &Error{Kind: KindCancelled}
	ErrUnknown              = &Error{Kind: KindUnknown}
)

// Error returns the user-facing description.
func (e *Error) Error() string {
	switch e.Kind {
	case KindNoInternetConnection:
		return "No internet connection. Please check your network settings."
	case KindUnauthorized:
		return "Session expired. Please login again."
	case KindForbidden:
		return "You don't have permission to access this resource."
	case KindNotFound:
		return "The requested resource was not found."
	case KindServerError:
		if e.Message != "" {
			return e.Message
		}
		return fmt.Sprintf("Server error occurred (Status code: %d)", e.Status)
	case KindAPIError:
		return e.Message
	case KindDecodingError:
		return fmt.Sprintf("Failed to parse response: %v", e.Cause)
	case KindTransportError:
		return fmt.Sprintf("Network error: %v", e.Cause)
	case KindCancelled:
		return "The request was cancelled."
	default:
		if e.Cause != nil {
			return fmt.Sprintf("An unknown error occurred: %v", e.Cause)
		}
		return "An unknown error occurred."
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// StatusCode returns the HTTP status associated with the error, if any.
func (e *Error) StatusCode() (int, bool) {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized, true
	case KindForbidden:
		return http.StatusForbidden, true
	case KindNotFound:
		return http.StatusNotFound, true
	case KindServerError:
		return e.Status, true
	default:
		return 0, false
	}
}

// KindOf classifies any error. Errors that did not come from the pipeline
// are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// asError coerces err into the taxonomy.
func asError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return unknownError(err)
}

func noInternet() *Error {
	return &Error{Kind: KindNoInternetConnection}
}

func statusError(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

func apiError(message string) *Error {
	return &Error{Kind: KindAPIError, Message: message}
}

func decodingError(cause error) *Error {
	return &Error{Kind: KindDecodingError, Cause: cause}
}

func transportError(cause error) *Error {
	return &Error{Kind: KindTransportError, Cause: cause}
}

func cancelledError(cause error) *Error {
	return &Error{Kind: KindCancelled, Cause: cause}
}

func unknownError(cause error) *Error {
	return &Error{Kind: KindUnknown, Cause: cause}
}
