package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Gate reports whether the network is currently usable.
type Gate interface {
	IsConnected() bool
}

// SessionReader supplies the bearer token and base URL per call.
// *session.Session implements it.
type SessionReader interface {
	AccessToken() (string, bool)
	BaseURL() (*url.URL, error)
}

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ Doer = (*http.Client)(nil)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

const defaultUserAgent = "netmoya"

// Client executes descriptors against the session's base URL.
type Client struct {
	session SessionReader
	gate    Gate
	http    Doer
	device  Device
	logger  zerolog.Logger
	logout  *LogoutSignal
	newID   func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.http = d
		}
	}
}

// WithDevice sets the device headers.
func WithDevice(d Device) Option {
	return func(c *Client) { c.device = d }
}

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithLogoutSignal sets the signal fired on 401.
func WithLogoutSignal(s *LogoutSignal) Option {
	return func(c *Client) {
		if s != nil {
			c.logout = s
		}
	}
}

// NewClient builds a Client. A nil gate means "always connected".
func NewClient(session SessionReader, gate Gate, opts ...Option) *Client {
	c := &Client{
		session: session,
		gate:    gate,
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  zerolog.Nop(),
		logout:  NewLogoutSignal(),
		newID:   newRequestID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Logout returns the signal fired when the server answers 401.
func (c *Client) Logout() *LogoutSignal {
	return c.logout
}

// Execute runs d and decodes the 2xx body directly into T.
func Execute[T any](ctx context.Context, c *Client, d Descriptor) (result T, err error) {
	call, err := c.begin(d)
	if err != nil {
		return result, err
	}
	defer func() { call.finish(err) }()

	body, err := c.roundTrip(ctx, call)
	if err != nil {
		return result, err
	}
	return DecodeDirect[T](body)
}

// ExecuteEnvelope runs d and decodes the 2xx body as Envelope[T]. An envelope
// with status=false is an ApiError.
func ExecuteEnvelope[T any](ctx context.Context, c *Client, d Descriptor) (result Envelope[T], err error) {
	call, err := c.begin(d)
	if err != nil {
		return result, err
	}
	defer func() { call.finish(err) }()

	body, err := c.roundTrip(ctx, call)
	if err != nil {
		return result, err
	}
	return DecodeEnvelope[T](body)
}

// ExecuteEmpty runs d and ignores any 2xx body.
func ExecuteEmpty(ctx context.Context, c *Client, d Descriptor) (err error) {
	call, err := c.begin(d)
	if err != nil {
		return err
	}
	defer func() { call.finish(err) }()

	_, err = c.roundTrip(ctx, call)
	return err
}

// call carries the per-request bookkeeping.
type call struct {
	client    *Client
	desc      Descriptor
	requestID string
	started   time.Time
	host      string
}

func (c *Client) begin(d Descriptor) (*call, error) {
	if c == nil {
		return nil, unknownError(errors.New("client is nil"))
	}
	if d == nil {
		return nil, unknownError(errors.New("descriptor is nil"))
	}
	return &call{client: c, desc: d, requestID: c.newID(), started: time.Now()}, nil
}

func (cl *call) finish(err error) {
	c := cl.client
	elapsed := time.Since(cl.started)
	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
	}
	recordRequest(cl.desc.Method(), cl.desc.Name(), cl.host, outcome, elapsed)

	if err != nil {
		c.logger.Warn().
			Str("request_id", cl.requestID).
			Str("endpoint", cl.desc.Name()).
			Str("kind", outcome).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("request failed")
		return
	}
	c.logger.Debug().
		Str("request_id", cl.requestID).
		Str("endpoint", cl.desc.Name()).
		Dur("elapsed", elapsed).
		Msg("request completed")
}

// roundTrip gates, sends and classifies. It returns the 2xx body.
func (c *Client) roundTrip(ctx context.Context, cl *call) ([]byte, error) {
	if c.gate != nil && !c.gate.IsConnected() {
		return nil, noInternet()
	}
	if err := ctx.Err(); err != nil {
		return nil, cancelledError(err)
	}

	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return nil, asError(err)
	}
	cl.host = req.URL.Host

	c.logger.Debug().
		Str("request_id", cl.requestID).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("sending request")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, cancelledError(ctxErr)
		}
		return nil, transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, cancelledError(ctxErr)
		}
		return nil, transportError(fmt.Errorf("read body: %w", err))
	}

	c.logger.Debug().
		Str("request_id", cl.requestID).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("received response")

	if err := c.classify(resp.StatusCode, body); err != nil {
		return nil, err
	}
	if len(body) > maxBodyBytes {
		return nil, decodingError(fmt.Errorf("response body exceeds %d bytes", maxBodyBytes))
	}
	return body, nil
}

// classify maps a status code to the taxonomy. 401 fires the logout signal.
func (c *Client) classify(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		c.logout.Fire(ReasonUnauthorized)
		return statusError(KindUnauthorized, status, "")
	case status == http.StatusForbidden:
		return statusError(KindForbidden, status, "")
	case status == http.StatusNotFound:
		return statusError(KindNotFound, status, "")
	}
	if env, ok := decodeErrorEnvelope(body); ok {
		if msg := messageOr(env.Message, ""); msg != "" {
			return &Error{Kind: KindAPIError, Status: status, Message: msg}
		}
	}
	return statusError(KindServerError, status, "")
}

func (c *Client) newRequest(ctx context.Context, cl *call) (*http.Request, error) {
	d := cl.desc
	base, err := c.session.BaseURL()
	if err != nil {
		return nil, unknownError(fmt.Errorf("resolve base url: %w", err))
	}
	path, err := d.Path()
	if err != nil {
		return nil, unknownError(err)
	}

	body, contentType, query, err := encodeTask(d.Task())
	if err != nil {
		return nil, err
	}

	target := *base
	target.Path = strings.TrimSuffix(base.Path, "/") + path
	target.RawPath = ""
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, d.Method(), target.String(), body)
	if err != nil {
		return nil, unknownError(fmt.Errorf("create request: %w", err))
	}
	req.Header = c.buildHeaders(d, cl.requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if req.Header.Get("User-Agent") == "" {
		ua := defaultUserAgent
		if c.device.AppVersion != "" {
			ua += "/" + c.device.AppVersion
		}
		req.Header.Set("User-Agent", ua)
	}
	return req, nil
}

// encodeTask turns a task into a body, its content type and query values.
func encodeTask(task Task) (io.Reader, string, url.Values, error) {
	switch t := task.(type) {
	case PlainTask:
		return nil, "", nil, nil
	case QueryTask:
		return nil, "", t.Values, nil
	case JSONTask:
		payload, err := json.Marshal(t.Body)
		if err != nil {
			return nil, "", nil, unknownError(fmt.Errorf("encode body: %w", err))
		}
		return bytes.NewReader(payload), "application/json", nil, nil
	case MultipartTask:
		return encodeMultipart(t.Parts)
	default:
		return nil, "", nil, unknownError(fmt.Errorf("unsupported task %T", task))
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(parts []Part) (io.Reader, string, url.Values, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(p.Field), quoteEscaper.Replace(p.FileName)))
		mime := p.MimeType
		if mime == "" {
			mime = "application/octet-stream"
		}
		h.Set("Content-Type", mime)
		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", nil, unknownError(fmt.Errorf("create part %s: %w", p.Field, err))
		}
		if _, err := pw.Write(p.Data); err != nil {
			return nil, "", nil, unknownError(fmt.Errorf("write part %s: %w", p.Field, err))
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", nil, unknownError(fmt.Errorf("close multipart: %w", err))
	}
	return &buf, w.FormDataContentType(), nil, nil
}
