package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/netmoya/internal/api"
	"github.com/five82/netmoya/internal/app"
	"github.com/five82/netmoya/internal/logging"
	"github.com/five82/netmoya/internal/logtail"
	"github.com/five82/netmoya/internal/mockapi"
	"github.com/five82/netmoya/internal/prefs"
)

func newWatchCmd(c *cli) *cobra.Command {
	var (
		pollSeconds int
		prefsPath   string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the live status view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), app.Options{
				ConfigPath: c.configPath,
				PollEvery:  pollSeconds,
				PrefsPath:  prefsPath,
				Adjust:     c.adjust,
				AppOptions: c.options(),
			})
		},
	}
	cmd.Flags().IntVar(&pollSeconds, "poll", 0, "refresh interval in seconds (defaults to probe_interval)")
	cmd.Flags().StringVar(&prefsPath, "prefs", "", "view preferences file (defaults to "+prefs.DefaultPath()+")")
	return cmd
}

func newMockServerCmd(c *cli) *cobra.Command {
	var (
		addr   string
		token  string
		shapes map[string]string
	)
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve an in-memory product API for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseShapes(shapes)
			if err != nil {
				return err
			}
			logger := logging.NewConsole(firstNonEmpty(c.logLevel, "info"), c.stderr)
			opts := []mockapi.Option{mockapi.WithLogger(logger), mockapi.WithShapes(parsed)}
			if token != "" {
				opts = append(opts, mockapi.WithToken(token))
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           mockapi.New(opts...),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			logger.Info().Str("addr", addr).Msg("mock API listening")

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serve mock api: %w", err)
			case <-cmd.Context().Done():
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&token, "token", "", "require this bearer token on product routes")
	cmd.Flags().StringToStringVar(&shapes, "shape", nil, "response shape per endpoint, e.g. list_products=bare")
	return cmd
}

func parseShapes(raw map[string]string) (map[string]api.Shape, error) {
	shapes := make(map[string]api.Shape, len(raw))
	for name, value := range raw {
		shape, err := api.ParseShape(value)
		if err != nil {
			return nil, fmt.Errorf("shape for %s: %w", name, err)
		}
		shapes[strings.TrimSpace(name)] = shape
	}
	return shapes, nil
}

func newLogsCmd(c *cli) *cobra.Command {
	var (
		lines int
		raw   bool
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of the log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			entries, err := logtail.ReadEntries(cfg.LogFile, lines)
			if err != nil {
				return err
			}
			return c.render(entries, func(w io.Writer) error {
				return writeEntries(w, entries, raw)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines; 0 prints the whole file")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the JSON lines unchanged")
	return cmd
}

func writeEntries(w io.Writer, entries []logtail.Entry, raw bool) error {
	for _, e := range entries {
		line := e.Colorize()
		if raw {
			line = e.Raw
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
