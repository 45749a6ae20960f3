package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/five82/netmoya/internal/api"
	"github.com/five82/netmoya/internal/catalog"
	"github.com/five82/netmoya/internal/config"
	"github.com/five82/netmoya/internal/connectivity"
	"github.com/five82/netmoya/internal/mockapi"
	"github.com/five82/netmoya/internal/state"
)

type memTokens struct {
	mu    sync.Mutex
	token string
}

func (m *memTokens) Load() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != "", nil
}

func (m *memTokens) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memTokens) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

func (m *memTokens) get() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// pathFeed replays paths pushed by the test.
type pathFeed chan connectivity.Path

func (f pathFeed) Events(ctx context.Context) <-chan connectivity.Path {
	out := make(chan connectivity.Path)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case p := <-f:
				select {
				case out <- p:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func newTestApp(t *testing.T, h http.Handler, tokens *memTokens, adjust ...func(*config.Config)) (*App, pathFeed) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Environments["development"] = srv.URL
	for _, fn := range adjust {
		fn(&cfg)
	}
	feed := make(pathFeed, 4)

	a, err := New(cfg, zerolog.Nop(),
		WithTokenStore(tokens),
		WithPathSource(feed),
		WithProber(connectivity.ProberFunc(func(context.Context) bool { return true })),
		WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, feed
}

func TestNewLoadsPersistedToken(t *testing.T) {
	tokens := &memTokens{token: "tok"}
	a, _ := newTestApp(t, mockapi.New(), tokens)

	token, ok := a.Session.AccessToken()
	require.True(t, ok)
	require.Equal(t, "tok", token)
	require.True(t, a.Store.Snapshot().LoggedIn)
}

func TestNewRejectsUnknownEnvironment(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = "qa"
	_, err := New(cfg, zerolog.Nop(), WithTokenStore(&memTokens{}))
	require.Error(t, err)
}

func TestUnauthorizedClearsSessionAndStore(t *testing.T) {
	tokens := &memTokens{token: "stale"}
	a, feed := newTestApp(t, mockapi.New(mockapi.WithToken("good")), tokens)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)
	feed <- connectivity.Path{Satisfied: true, Kind: connectivity.KindWiFi}
	require.NoError(t, a.WaitReady(ctx))

	_, err := a.Products.List(ctx, catalog.ListProducts{})
	require.ErrorIs(t, err, api.ErrUnauthorized)

	_, ok := a.Session.AccessToken()
	require.False(t, ok)
	require.Empty(t, tokens.get())
	require.False(t, a.Store.Snapshot().LoggedIn)
}

func TestLoginLogout(t *testing.T) {
	tokens := &memTokens{}
	a, _ := newTestApp(t, mockapi.New(mockapi.WithToken("good")), tokens)

	require.Error(t, a.Login("   "))

	require.NoError(t, a.Login("good"))
	require.Equal(t, "good", tokens.get())
	_, err := a.Products.List(context.Background(), catalog.ListProducts{})
	require.NoError(t, err)

	require.NoError(t, a.Logout())
	require.NoError(t, a.Logout())
	require.Empty(t, tokens.get())
	_, ok := a.Session.AccessToken()
	require.False(t, ok)
}

func TestStartMirrorsConnectivity(t *testing.T) {
	a, feed := newTestApp(t, mockapi.New(), &memTokens{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)

	feed <- connectivity.Path{Satisfied: false, Kind: connectivity.KindDisconnected}
	require.Eventually(t, func() bool {
		return !a.Store.Snapshot().Connectivity.Connected
	}, 2*time.Second, 10*time.Millisecond)

	_, err := a.Health.Fetch(ctx)
	require.ErrorIs(t, err, api.ErrNoInternetConnection)

	feed <- connectivity.Path{Satisfied: true, Kind: connectivity.KindEthernet}
	require.Eventually(t, func() bool {
		c := a.Store.Snapshot().Connectivity
		return c.Connected && c.Kind == connectivity.KindEthernet
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartMirrorsKindChangeWhileConnected(t *testing.T) {
	a, feed := newTestApp(t, mockapi.New(), &memTokens{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)

	feed <- connectivity.Path{Satisfied: true, Kind: connectivity.KindWiFi}
	require.Eventually(t, func() bool {
		return a.Store.Snapshot().Connectivity == connectivity.State{Connected: true, Kind: connectivity.KindWiFi}
	}, 2*time.Second, 10*time.Millisecond)

	feed <- connectivity.Path{Satisfied: true, Kind: connectivity.KindEthernet}
	require.Eventually(t, func() bool {
		return a.Store.Snapshot().Connectivity == connectivity.State{Connected: true, Kind: connectivity.KindEthernet}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConfiguredShapesReachProductService(t *testing.T) {
	bare := map[string]api.Shape{"list_products": api.ShapeBare}
	a, _ := newTestApp(t, mockapi.New(mockapi.WithShapes(bare)), &memTokens{}, func(cfg *config.Config) {
		cfg.Shapes = bare
	})

	page, err := a.Products.List(context.Background(), catalog.ListProducts{})
	require.NoError(t, err)
	require.NotEmpty(t, page.Products)
}

func TestNewRejectsUnknownShapeEndpoint(t *testing.T) {
	cfg := config.Default()
	cfg.Shapes = map[string]api.Shape{"list_orders": api.ShapeBare}
	_, err := New(cfg, zerolog.Nop(), WithTokenStore(&memTokens{}))
	require.Error(t, err)
}

func TestPollerPopulatesStore(t *testing.T) {
	a, _ := newTestApp(t, mockapi.New(), &memTokens{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartPoller(ctx, a.Store, a.Products, a.Health, 20*time.Millisecond, zerolog.Nop())
	require.Eventually(t, func() bool {
		snap := a.Store.Snapshot()
		return snap.HasProducts && snap.Healthy && len(snap.Products.Products) == len(mockapi.SampleProducts())
	}, 2*time.Second, 10*time.Millisecond)
}

type listerFunc func(ctx context.Context, q catalog.ListProducts) (catalog.ProductListResponse, error)

func (f listerFunc) List(ctx context.Context, q catalog.ListProducts) (catalog.ProductListResponse, error) {
	return f(ctx, q)
}

type fixedHealth bool

func (h fixedHealth) Check(context.Context) bool { return bool(h) }

func TestRefreshRecordsFailuresButNotCancellation(t *testing.T) {
	store := state.NewStore()
	failing := listerFunc(func(context.Context, catalog.ListProducts) (catalog.ProductListResponse, error) {
		return catalog.ProductListResponse{}, errors.New("boom")
	})
	refresh(context.Background(), store, failing, fixedHealth(false), zerolog.Nop())
	require.Equal(t, 1, store.Snapshot().ConsecutiveFailures)

	cancelled := listerFunc(func(context.Context, catalog.ListProducts) (catalog.ProductListResponse, error) {
		return catalog.ProductListResponse{}, &api.Error{Kind: api.KindCancelled}
	})
	refresh(context.Background(), store, cancelled, fixedHealth(false), zerolog.Nop())
	require.Equal(t, 1, store.Snapshot().ConsecutiveFailures)
}

func TestMetricsRouter(t *testing.T) {
	srv := httptest.NewServer(metricsRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "netmoya_connectivity_connected")
}
