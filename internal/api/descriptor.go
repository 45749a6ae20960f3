package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Shape selects how a successful response body is decoded.
type Shape int

const (
	// ShapeBare decodes the body directly into the target type.
	ShapeBare Shape = iota
	// ShapeEnvelope decodes {status, message, data, errors, code} and unwraps data.
	ShapeEnvelope
)

func (s Shape) String() string {
	switch s {
	case ShapeBare:
		return "bare"
	case ShapeEnvelope:
		return "envelope"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// ParseShape reads "bare" or "envelope", ignoring case and surrounding space.
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bare":
		return ShapeBare, nil
	case "envelope":
		return ShapeEnvelope, nil
	default:
		return 0, fmt.Errorf("response shape %q: want bare or envelope", s)
	}
}

// Descriptor declares one API call: method, path, parameter encoding and
// header overrides. It carries no execution logic.
type Descriptor interface {
	// Name is a stable identifier used for logs and metric labels.
	Name() string
	Method() string
	// Path returns the path below the base URL, starting with "/".
	Path() (string, error)
	Task() Task
	// Headers overrides the default header set. An empty value removes the
	// default header with that name.
	Headers() http.Header
	// Shape reports whether the endpoint answers with a bare payload or an envelope.
	Shape() Shape
}

// Task is the closed set of request parameter encodings. Exactly one kind
// is selected per descriptor.
type Task interface {
	isTask()
}

// PlainTask sends no parameters.
type PlainTask struct{}

// QueryTask encodes parameters into the query string.
type QueryTask struct {
	Values url.Values
}

// JSONTask encodes Body as the JSON request body.
type JSONTask struct {
	Body any
}

// MultipartTask uploads form-data parts.
type MultipartTask struct {
	Parts []Part
}

// Part is one multipart/form-data file field.
type Part struct {
	Field    string
	FileName string
	MimeType string
	Data     []byte
}

func (PlainTask) isTask()     {}
func (QueryTask) isTask()     {}
func (JSONTask) isTask()      {}
func (MultipartTask) isTask() {}

// ErrInvalidPath reports a path template that would produce an empty or
// ambiguous segment.
var ErrInvalidPath = errors.New("invalid path segment")

// JoinPath builds "/a/b/c" from segments. Segments must be non-blank, may
// not contain "/" and may not be the dot segments "." or "..".
func JoinPath(segments ...string) (string, error) {
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: no segments", ErrInvalidPath)
	}
	var b strings.Builder
	for _, seg := range segments {
		if strings.TrimSpace(seg) == "" {
			return "", fmt.Errorf("%w: empty segment", ErrInvalidPath)
		}
		if strings.Contains(seg, "/") {
			return "", fmt.Errorf("%w: %q contains '/'", ErrInvalidPath, seg)
		}
		if seg == "." || seg == ".." {
			return "", fmt.Errorf("%w: dot segment %q", ErrInvalidPath, seg)
		}
		b.WriteByte('/')
		b.WriteString(seg)
	}
	return b.String(), nil
}
