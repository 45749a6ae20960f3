package api

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// Envelope is the {status, message, data, errors, code} wrapper some
// endpoints answer with.
type Envelope[T any] struct {
	Status  bool     `json:"status"`
	Message *string  `json:"message,omitempty"`
	Data    *T       `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Code    *int     `json:"code,omitempty"`
}

// Unwrap returns the payload. A missing payload is an ApiError carrying the
// envelope message, or "No data received".
func (e Envelope[T]) Unwrap() (T, error) {
	if e.Data == nil {
		var zero T
		return zero, apiError(messageOr(e.Message, "No data received"))
	}
	return *e.Data, nil
}

// ErrorEnvelope is the body shape servers use for non-2xx answers. Errors
// may be a list or a field map and Code a number or a string, so both stay raw.
type ErrorEnvelope struct {
	Message *string         `json:"message,omitempty"`
	Errors  json.RawMessage `json:"errors,omitempty"`
	Code    json.RawMessage `json:"code,omitempty"`
}

// DecodeDirect decodes body into T.
func DecodeDirect[T any](body []byte) (T, error) {
	var out T
	if len(bytes.TrimSpace(body)) == 0 {
		return out, decodingError(errors.New("empty response body"))
	}
	if err := json.Unmarshal(body, &out); err != nil {
		var zero T
		return zero, decodingError(err)
	}
	return out, nil
}

// DecodeEnvelope decodes body as Envelope[T]. A body without a boolean
// status is a DecodingError; status=false is an ApiError.
func DecodeEnvelope[T any](body []byte) (Envelope[T], error) {
	env, err := DecodeDirect[Envelope[T]](body)
	if err != nil {
		return Envelope[T]{}, err
	}
	if status := gjson.GetBytes(body, "status"); status.Type != gjson.True && status.Type != gjson.False {
		return Envelope[T]{}, decodingError(errors.New(`envelope has no boolean "status"`))
	}
	if !env.Status {
		return env, apiError(messageOr(env.Message, "API error"))
	}
	return env, nil
}

// decodeErrorEnvelope parses body as an ErrorEnvelope when it is a JSON
// object carrying a string "message" field.
func decodeErrorEnvelope(body []byte) (ErrorEnvelope, bool) {
	if !gjson.ValidBytes(body) {
		return ErrorEnvelope{}, false
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return ErrorEnvelope{}, false
	}
	msg := root.Get("message")
	if !msg.Exists() || msg.Type != gjson.String {
		return ErrorEnvelope{}, false
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ErrorEnvelope{}, false
	}
	return env, true
}

func messageOr(msg *string, fallback string) string {
	if msg != nil && *msg != "" {
		return *msg
	}
	return fallback
}
