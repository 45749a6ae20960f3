package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/netmoya/internal/api"
	"github.com/five82/netmoya/internal/app"
	"github.com/five82/netmoya/internal/config"
	"github.com/five82/netmoya/internal/connectivity"
	"github.com/five82/netmoya/internal/logging"
)

// cli holds the persistent flags and the streams commands write to.
type cli struct {
	configPath   string
	output       string
	logLevel     string
	environment  string
	baseURL      string
	assumeOnline bool
	shapeFlags   map[string]string
	shapes       map[string]api.Shape

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// appOptions are appended when building the app; tests use it to
	// inject collaborators.
	appOptions []app.Option
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	return &cli{stdin: stdin, stdout: stdout, stderr: stderr, output: "text"}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "netmoya",
		Short:         "Product catalogue API client",
		Long:          "netmoya talks to the product catalogue API through a connectivity-aware request pipeline.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch c.output {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("unknown output format %q (want text, json or yaml)", c.output)
			}
			shapes, err := parseShapes(c.shapeFlags)
			if err != nil {
				return err
			}
			c.shapes = shapes
			return nil
		},
	}
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVarP(&c.output, "output", "o", "text", "output format: text, json or yaml")
	flags.StringVar(&c.logLevel, "log-level", "", "override log level")
	flags.StringVar(&c.environment, "env", "", "override environment: development, staging or production")
	flags.StringVar(&c.baseURL, "base-url", "", "override the base URL of every environment")
	flags.BoolVar(&c.assumeOnline, "assume-online", false, "skip interface and reachability checks")
	flags.StringToStringVar(&c.shapeFlags, "response-shape", nil, "response shape per endpoint, e.g. list_products=bare (overrides [shapes] in the config)")

	root.AddCommand(
		newProductsCmd(c),
		newHealthCmd(c),
		newTodosCmd(c),
		newLoginCmd(c),
		newLogoutCmd(c),
		newWatchCmd(c),
		newMockServerCmd(c),
		newLogsCmd(c),
	)
	return root
}

// loadConfig reads the config file and applies flag overrides.
func (c *cli) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	c.adjust(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (c *cli) adjust(cfg *config.Config) {
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if env := strings.TrimSpace(c.environment); env != "" {
		cfg.Environment = strings.ToLower(env)
	}
	if base := strings.TrimSpace(c.baseURL); base != "" {
		for name := range cfg.Environments {
			cfg.Environments[name] = base
		}
	}
	if len(c.shapes) > 0 && cfg.Shapes == nil {
		cfg.Shapes = make(map[string]api.Shape, len(c.shapes))
	}
	for name, shape := range c.shapes {
		cfg.Shapes[name] = shape
	}
}

func (c *cli) options() []app.Option {
	opts := make([]app.Option, 0, len(c.appOptions)+2)
	if c.assumeOnline {
		opts = append(opts,
			app.WithPathSource(connectivity.StaticSource{Path: connectivity.Path{Satisfied: true, Kind: connectivity.KindUnknown}}),
			app.WithProber(connectivity.ProberFunc(func(context.Context) bool { return true })),
		)
	}
	return append(opts, c.appOptions...)
}

// newApp builds the layer without starting connectivity monitoring.
func (c *cli) newApp() (*app.App, func(), error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	var file io.Writer
	cleanup := func() {}
	if f, err := logging.OpenFile(cfg.LogFile); err == nil {
		file = f
		cleanup = func() { _ = f.Close() }
	}
	logger := logging.NewTee(cfg.LogLevel, file, c.stderr)

	a, err := app.New(cfg, logger, c.options()...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, func() {
		a.Close()
		cleanup()
	}, nil
}

// withApp runs fn against a started app. The first connectivity verdict is
// awaited for at most the probe timeout; after that the optimistic initial
// state applies.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	a, closeApp, err := c.newApp()
	if err != nil {
		return err
	}
	defer closeApp()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	a.Start(ctx)

	readyCtx, readyCancel := context.WithTimeout(ctx, a.Config.ProbeTimeout)
	_ = a.WaitReady(readyCtx)
	readyCancel()

	return fn(ctx, a)
}

// errorReport is the machine-readable form of a failed command.
type errorReport struct {
	Error  string `json:"error" yaml:"error"`
	Kind   string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Status int    `json:"status,omitempty" yaml:"status,omitempty"`
}

func (c *cli) reportError(err error) {
	report := newErrorReport(err)
	if c.output == "json" || c.output == "yaml" {
		if encErr := encode(c.stderr, c.output, report); encErr == nil {
			return
		}
	}
	if report.Kind != "" {
		fmt.Fprintf(c.stderr, "netmoya: %s (%s)\n", report.Error, report.Kind)
		return
	}
	fmt.Fprintf(c.stderr, "netmoya: %s\n", report.Error)
}

func newErrorReport(err error) errorReport {
	report := errorReport{Error: err.Error()}
	if kind, status, ok := apiDetails(err); ok {
		report.Kind = kind
		report.Status = status
	}
	return report
}

var errNothingToUpdate = errors.New("nothing to update: pass at least one field flag")
