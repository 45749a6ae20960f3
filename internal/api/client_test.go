package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testSession struct {
	base  string
	token string
}

func (s testSession) AccessToken() (string, bool) {
	return s.token, s.token != ""
}

func (s testSession) BaseURL() (*url.URL, error) {
	return url.Parse(s.base)
}

type gateFunc func() bool

func (g gateFunc) IsConnected() bool { return g() }

var open = gateFunc(func() bool { return true })

type testEndpoint struct {
	name    string
	method  string
	path    string
	pathErr error
	task    Task
	headers http.Header
	shape   Shape
}

func (e testEndpoint) Name() string {
	if e.name == "" {
		return "test"
	}
	return e.name
}

func (e testEndpoint) Method() string {
	if e.method == "" {
		return http.MethodGet
	}
	return e.method
}

func (e testEndpoint) Path() (string, error) { return e.path, e.pathErr }

func (e testEndpoint) Task() Task {
	if e.task == nil {
		return PlainTask{}
	}
	return e.task
}

func (e testEndpoint) Headers() http.Header { return e.headers }
func (e testEndpoint) Shape() Shape         { return e.shape }

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// countingDoer fails the test when the pipeline reaches the transport.
type countingDoer struct {
	calls atomic.Int32
}

func (d *countingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls.Add(1)
	return nil, errors.New("unexpected transport call")
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(testSession{base: srv.URL + "/"}, open, append([]Option{WithHTTPClient(srv.Client())}, opts...)...)
}

func TestGateClosedMakesNoTransportCalls(t *testing.T) {
	doer := &countingDoer{}
	closed := gateFunc(func() bool { return false })
	c := NewClient(testSession{base: "http://example.invalid"}, closed, WithHTTPClient(doer))
	d := testEndpoint{path: "/x"}
	ctx := context.Background()

	_, err := Execute[item](ctx, c, d)
	require.ErrorIs(t, err, ErrNoInternetConnection)
	_, err = ExecuteEnvelope[item](ctx, c, d)
	require.ErrorIs(t, err, ErrNoInternetConnection)
	err = ExecuteEmpty(ctx, c, d)
	require.ErrorIs(t, err, ErrNoInternetConnection)

	require.Equal(t, int32(0), doer.calls.Load())
	require.Equal(t, "No internet connection. Please check your network settings.", err.Error())
}

func TestUnauthorizedFiresLogoutOncePerShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"token expired"}`)
	})
	var fired atomic.Int32
	c.Logout().Subscribe(func(reason LogoutReason) {
		require.Equal(t, ReasonUnauthorized, reason)
		fired.Add(1)
	})

	d := testEndpoint{path: "/secure"}
	ctx := context.Background()
	calls := []func() error{
		func() error { _, err := Execute[item](ctx, c, d); return err },
		func() error { _, err := ExecuteEnvelope[item](ctx, c, d); return err },
		func() error { return ExecuteEmpty(ctx, c, d) },
	}
	for i, call := range calls {
		err := call()
		require.ErrorIs(t, err, ErrUnauthorized)
		require.Equal(t, int32(i+1), fired.Load(), "logout count after call %d", i)
		status, ok := err.(*Error).StatusCode()
		require.True(t, ok)
		require.Equal(t, http.StatusUnauthorized, status)
	}
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    Kind
		message string
	}{
		{name: "forbidden", status: 403, body: `{"message":"nope"}`, want: KindForbidden},
		{name: "not found", status: 404, want: KindNotFound},
		{name: "api error from envelope", status: 422, body: `{"message":"name is required","errors":{"name":["required"]},"code":"E422"}`, want: KindAPIError, message: "name is required"},
		{name: "server error without message", status: 500, body: `<html>oops</html>`, want: KindServerError, message: "Server error occurred (Status code: 500)"},
		{name: "server error with non-string message", status: 502, body: `{"message":42}`, want: KindServerError},
		{name: "server error with empty message", status: 503, body: `{"message":""}`, want: KindServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := Execute[item](context.Background(), c, testEndpoint{path: "/x"})
			require.Error(t, err)
			require.Equal(t, tt.want, KindOf(err))
			if tt.message != "" {
				require.Equal(t, tt.message, err.Error())
			}
		})
	}
}

func TestExecuteDecodesBarePayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/items/7", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":"7","name":"lamp"}`)
	})
	got, err := Execute[item](context.Background(), c, testEndpoint{path: "/api/v1/items/7"})
	require.NoError(t, err)
	require.Equal(t, item{ID: "7", Name: "lamp"}, got)
}

func TestExecuteEnvelope(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"status":true,"message":"ok","data":{"id":"1","name":"desk"}}`)
		})
		env, err := ExecuteEnvelope[item](context.Background(), c, testEndpoint{path: "/x", shape: ShapeEnvelope})
		require.NoError(t, err)
		got, err := env.Unwrap()
		require.NoError(t, err)
		require.Equal(t, "desk", got.Name)
	})

	t.Run("status false", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"status":false,"message":"x"}`)
		})
		_, err := ExecuteEnvelope[item](context.Background(), c, testEndpoint{path: "/x"})
		require.ErrorIs(t, err, ErrAPIError)
		require.Equal(t, "x", err.Error())
	})

	t.Run("status false without message", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"status":false}`)
		})
		_, err := ExecuteEnvelope[item](context.Background(), c, testEndpoint{path: "/x"})
		require.Equal(t, "API error", err.Error())
	})

	t.Run("missing status is a decoding error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"data":{"id":"1","name":"desk"}}`)
		})
		_, err := ExecuteEnvelope[item](context.Background(), c, testEndpoint{path: "/x"})
		require.ErrorIs(t, err, ErrDecoding)
		require.Equal(t, KindDecodingError, KindOf(err))
	})

	t.Run("missing data", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"status":true}`)
		})
		env, err := ExecuteEnvelope[item](context.Background(), c, testEndpoint{path: "/x"})
		require.NoError(t, err)
		_, err = env.Unwrap()
		require.ErrorIs(t, err, ErrAPIError)
		require.Equal(t, "No data received", err.Error())
	})
}

func TestDecodingError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":`)
	})
	_, err := Execute[item](context.Background(), c, testEndpoint{path: "/x"})
	require.ErrorIs(t, err, ErrDecoding)
	require.Contains(t, err.Error(), "Failed to parse response")
}

func TestExecuteEmptyAccepts204(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	err := ExecuteEmpty(context.Background(), c, testEndpoint{method: http.MethodDelete, path: "/x/1"})
	require.NoError(t, err)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(testSession{base: base}, open)
	_, err := Execute[item](context.Background(), c, testEndpoint{path: "/x"})
	require.ErrorIs(t, err, ErrTransport)
	require.Contains(t, err.Error(), "Network error")
}

func TestCancellationIsDistinctOutcome(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := Execute[item](ctx, c, testEndpoint{path: "/slow"})
	require.ErrorIs(t, err, ErrCancelled)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	err = ExecuteEmpty(cancelled, c, testEndpoint{path: "/slow"})
	require.ErrorIs(t, err, ErrCancelled)
}

func TestInvalidPathFailsBeforeTransport(t *testing.T) {
	doer := &countingDoer{}
	c := NewClient(testSession{base: "http://example.invalid"}, open, WithHTTPClient(doer))
	_, pathErr := JoinPath("api", "v1", "products", " ")
	_, err := Execute[item](context.Background(), c, testEndpoint{pathErr: pathErr})
	require.Equal(t, KindUnknown, KindOf(err))
	require.ErrorIs(t, err, ErrInvalidPath)
	require.Equal(t, int32(0), doer.calls.Load())
}

func TestHeaders(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = io.WriteString(w, `{}`)
	}, WithDevice(Device{Locale: "en", AppVersion: "1.2.0", Platform: "linux", Model: "x86_64", OSVersion: "6.1"}))
	c.session = testSession{base: c.session.(testSession).base, token: "tok"}

	_, err := Execute[item](context.Background(), c, testEndpoint{
		path:    "/x",
		headers: http.Header{"X-Device-Model": {""}, "X-Trace": {"abc"}},
	})
	require.NoError(t, err)
	require.Equal(t, "application/json", got.Get("Accept"))
	require.Equal(t, "application/json", got.Get("Content-Type"))
	require.Equal(t, "en", got.Get("Accept-Language"))
	require.Equal(t, "1.2.0", got.Get("X-App-Version"))
	require.Equal(t, "linux", got.Get("X-Device-Platform"))
	require.Equal(t, "6.1", got.Get("X-OS-Version"))
	require.Empty(t, got.Get("X-Device-Model"))
	require.Equal(t, "abc", got.Get("X-Trace"))
	require.Equal(t, "Bearer tok", got.Get("Authorization"))
	require.Equal(t, "netmoya/1.2.0", got.Get("User-Agent"))
	require.Len(t, got.Get("X-Request-ID"), 36)
}

func TestNoAuthorizationWithoutToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{}`)
	})
	_, err := Execute[item](context.Background(), c, testEndpoint{path: "/x"})
	require.NoError(t, err)
}

func TestQueryAndJSONTasks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			require.Equal(t, "limit=10&page=2", r.URL.RawQuery)
			_, _ = io.WriteString(w, `{"id":"q"}`)
		case http.MethodPost:
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.JSONEq(t, `{"id":"","name":"chair"}`, string(body))
			_, _ = w.Write(body)
		}
	})
	ctx := context.Background()

	got, err := Execute[item](ctx, c, testEndpoint{path: "/q", task: QueryTask{Values: url.Values{"page": {"2"}, "limit": {"10"}}}})
	require.NoError(t, err)
	require.Equal(t, "q", got.ID)

	got, err = Execute[item](ctx, c, testEndpoint{method: http.MethodPost, path: "/q", task: JSONTask{Body: item{Name: "chair"}}})
	require.NoError(t, err)
	require.Equal(t, "chair", got.Name)
}

func TestMultipartTask(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		require.Equal(t, "multipart/form-data", mediaType)

		reader := multipart.NewReader(r.Body, params["boundary"])
		part, err := reader.NextPart()
		require.NoError(t, err)
		require.Equal(t, "image", part.FormName())
		require.Equal(t, "photo.png", part.FileName())
		require.Equal(t, "image/png", part.Header.Get("Content-Type"))
		data, err := io.ReadAll(part)
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3}, data)
		_, _ = io.WriteString(w, `{"id":"1"}`)
	})

	_, err := Execute[item](context.Background(), c, testEndpoint{
		method:  http.MethodPost,
		path:    "/up",
		headers: http.Header{"Content-Type": {""}},
		task:    MultipartTask{Parts: []Part{{Field: "image", FileName: "photo.png", MimeType: "image/png", Data: []byte{1, 2, 3}}}},
	})
	require.NoError(t, err)
}

func TestBasePathPrefixIsKept(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/prefix/api/v1/health", r.URL.Path)
		_, _ = io.WriteString(w, `{}`)
	})
	base := c.session.(testSession).base
	c.session = testSession{base: base + "prefix/"}
	_, err := Execute[item](context.Background(), c, testEndpoint{path: "/api/v1/health"})
	require.NoError(t, err)
}

func TestConcurrentCalls(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":"c"}`)
	})
	errs := make(chan error, 16)
	for i := 0; i < cap(errs); i++ {
		go func() {
			_, err := Execute[item](context.Background(), c, testEndpoint{path: "/x"})
			errs <- err
		}()
	}
	for i := 0; i < cap(errs); i++ {
		require.NoError(t, <-errs)
	}
}
