package api

import (
	"net/http"

	"github.com/google/uuid"
)

// Device describes the client installation sent with every request.
type Device struct {
	Locale     string
	AppVersion string
	Platform   string
	Model      string
	OSVersion  string
}

const requestIDHeader = "X-Request-ID"

// buildHeaders merges the default set, the descriptor overrides and the
// bearer token. An override with an empty value deletes the default.
func (c *Client) buildHeaders(d Descriptor, requestID string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	setIfPresent(h, "Accept-Language", c.device.Locale)
	setIfPresent(h, "X-App-Version", c.device.AppVersion)
	setIfPresent(h, "X-Device-Platform", c.device.Platform)
	setIfPresent(h, "X-Device-Model", c.device.Model)
	setIfPresent(h, "X-OS-Version", c.device.OSVersion)
	h.Set(requestIDHeader, requestID)

	for name, values := range d.Headers() {
		if len(values) == 0 || (len(values) == 1 && values[0] == "") {
			h.Del(name)
			continue
		}
		h.Del(name)
		for _, v := range values {
			h.Add(name, v)
		}
	}

	if token, ok := c.session.AccessToken(); ok {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func setIfPresent(h http.Header, name, value string) {
	if value != "" {
		h.Set(name, value)
	}
}

func newRequestID() string {
	return uuid.NewString()
}
