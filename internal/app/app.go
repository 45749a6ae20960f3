package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/netmoya/internal/api"
	"github.com/five82/netmoya/internal/catalog"
	"github.com/five82/netmoya/internal/config"
	"github.com/five82/netmoya/internal/connectivity"
	"github.com/five82/netmoya/internal/logging"
	"github.com/five82/netmoya/internal/prefs"
	"github.com/five82/netmoya/internal/session"
	"github.com/five82/netmoya/internal/state"
	"github.com/five82/netmoya/internal/tokenstore"
	"github.com/five82/netmoya/internal/ui"
)

// App owns every long-lived piece of the network layer.
type App struct {
	Config   config.Config
	Session  *session.Session
	Tokens   tokenstore.Store
	Monitor  *connectivity.Monitor
	Client   *api.Client
	Products *catalog.ProductService
	Todos    *catalog.TodoService
	Health   *catalog.HealthService
	Store    *state.Store

	logger      zerolog.Logger
	unsubscribe func()
	closeOnce   sync.Once
}

// Option overrides a collaborator New would otherwise build from config.
type Option func(*builder)

type builder struct {
	tokens tokenstore.Store
	source connectivity.PathSource
	prober connectivity.Prober
	doer   api.Doer
}

// WithTokenStore replaces the keyring/file token store.
func WithTokenStore(s tokenstore.Store) Option {
	return func(b *builder) { b.tokens = s }
}

// WithPathSource replaces the interface watcher.
func WithPathSource(s connectivity.PathSource) Option {
	return func(b *builder) { b.source = s }
}

// WithProber replaces the HTTP reachability prober.
func WithProber(p connectivity.Prober) Option {
	return func(b *builder) { b.prober = p }
}

// WithHTTPClient replaces the pinned transport.
func WithHTTPClient(d api.Doer) Option {
	return func(b *builder) { b.doer = d }
}

// New wires the layer from cfg. A persisted token is loaded into the session
// and a logout handler is registered that clears it again on 401.
func New(cfg config.Config, logger zerolog.Logger, opts ...Option) (*App, error) {
	var b builder
	for _, opt := range opts {
		opt(&b)
	}

	sess, err := newSession(cfg)
	if err != nil {
		return nil, err
	}
	if err := catalog.CheckShapes(cfg.Shapes); err != nil {
		return nil, err
	}

	if b.tokens == nil {
		b.tokens = tokenstore.Open(cfg.UseKeyring, cfg.TokenFile)
	}
	if b.source == nil {
		b.source = connectivity.NewInterfaceWatcher(cfg.ProbeInterval, connectivity.SystemInterfaces)
	}
	if b.prober == nil {
		b.prober = connectivity.NewHTTPProber(cfg.ProbeURL, cfg.ProbeTimeout)
	}
	if b.doer == nil {
		httpClient, err := api.NewHTTPClient(api.TransportOptions{
			RequestTimeout:  cfg.RequestTimeout,
			ResourceTimeout: cfg.ResourceTimeout,
			PinnedCertsDir:  cfg.PinnedCertsDir,
		})
		if err != nil {
			return nil, fmt.Errorf("init http client: %w", err)
		}
		b.doer = httpClient
	}

	monitor := connectivity.New(b.source, b.prober,
		connectivity.WithLogger(logger.With().Str("component", "connectivity").Logger()))

	client := api.NewClient(sess, monitor,
		api.WithHTTPClient(b.doer),
		api.WithLogger(logger.With().Str("component", "api").Logger()),
		api.WithDevice(api.Device{
			Locale:     cfg.Locale,
			AppVersion: cfg.AppVersion,
			Platform:   cfg.DevicePlatform,
			Model:      cfg.DeviceModel,
			OSVersion:  cfg.OSVersion,
		}),
	)

	a := &App{
		Config:   cfg,
		Session:  sess,
		Tokens:   b.tokens,
		Monitor:  monitor,
		Client:   client,
		Products: catalog.NewProductService(client, catalog.WithShapes(cfg.Shapes)),
		Todos:    catalog.NewTodoService(client),
		Health:   catalog.NewHealthService(client),
		Store:    state.NewStore(),
		logger:   logger,
	}

	if token, ok, err := a.Tokens.Load(); err != nil {
		logger.Warn().Err(err).Msg("load persisted token")
	} else if ok {
		sess.SetAccessToken(&token)
		a.Store.SetLoggedIn(true)
	}

	a.unsubscribe = client.Logout().Subscribe(a.handleLogout)
	return a, nil
}

func newSession(cfg config.Config) (*session.Session, error) {
	env, err := session.ParseEnvironment(cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("select environment: %w", err)
	}
	urls := make(map[session.Environment]string, len(cfg.Environments))
	for name, base := range cfg.Environments {
		parsed, err := session.ParseEnvironment(name)
		if err != nil {
			continue
		}
		urls[parsed] = base
	}
	sess := session.New(env, urls)
	if _, err := sess.BaseURL(); err != nil {
		return nil, fmt.Errorf("select environment: %w", err)
	}
	return sess, nil
}

func (a *App) handleLogout(reason api.LogoutReason) {
	a.Session.ClearAccessToken()
	if err := a.Tokens.Clear(); err != nil {
		a.logger.Warn().Err(err).Msg("clear persisted token")
	}
	a.Store.SetLoggedIn(false)
	a.logger.Warn().Str("reason", string(reason)).Msg("session ended")
}

// Start launches connectivity monitoring and mirrors it into the store.
func (a *App) Start(ctx context.Context) {
	a.Monitor.Start(ctx)
	updates, cancel := a.Monitor.SubscribeState(4)
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case state, ok := <-updates:
				if !ok {
					return
				}
				a.Store.SetConnectivity(state)
			}
		}
	}()
}

// WaitReady blocks until the first connectivity verdict or ctx is done.
func (a *App) WaitReady(ctx context.Context) error {
	select {
	case <-a.Monitor.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login stores token in the session and persists it.
func (a *App) Login(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is empty")
	}
	if err := a.Tokens.Save(token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	a.Session.SetAccessToken(&token)
	a.Store.SetLoggedIn(true)
	return nil
}

// Logout clears the token from the session and from storage.
func (a *App) Logout() error {
	a.Session.ClearAccessToken()
	a.Store.SetLoggedIn(false)
	if err := a.Tokens.Clear(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// Close releases the delete pool and the logout subscription.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
		a.Products.Close()
	})
}

// Options configure the watch command.
type Options struct {
	ConfigPath string
	PollEvery  int // seconds; zero uses the configured probe interval
	LogLevel   string
	PrefsPath  string // empty uses prefs.DefaultPath

	// Adjust edits the loaded config before anything is built.
	Adjust func(*config.Config)
	// AppOptions are passed through to New.
	AppOptions []Option
}

// Run boots the status view until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.Adjust != nil {
		opts.Adjust(&cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	var logOut io.Writer = io.Discard
	if logFile, err := logging.OpenFile(cfg.LogFile); err == nil {
		defer func() { _ = logFile.Close() }()
		logOut = logFile
	}
	logger := logging.New(cfg.LogLevel, logOut)

	a, err := New(cfg, logger, opts.AppOptions...)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.Start(ctx)

	if cfg.MetricsAddr != "" {
		go func() {
			if err := ServeMetrics(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	interval := cfg.ProbeInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}
	StartPoller(ctx, a.Store, a.Products, a.Health, interval, logger)

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	return ui.Run(ui.Options{
		Context:   ctx,
		Store:     a.Store,
		Session:   a.Session,
		LogPath:   cfg.LogFile,
		PollTick:  interval,
		Prefs:     prefs.Load(prefsPath),
		PrefsPath: prefsPath,
	})
}
