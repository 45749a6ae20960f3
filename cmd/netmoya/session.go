package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/netmoya/internal/app"
	"github.com/five82/netmoya/internal/catalog"
)

type healthResult struct {
	catalog.HealthResponse `yaml:",inline"`
	Connected              bool   `json:"connected" yaml:"connected"`
	Interface              string `json:"interface" yaml:"interface"`
}

func newHealthCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check API health and local connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				health, err := a.Health.Fetch(ctx)
				if err != nil {
					return err
				}
				state := a.Monitor.Current()
				result := healthResult{HealthResponse: health, Connected: state.Connected, Interface: state.Kind.String()}
				return c.render(result, func(w io.Writer) error {
					line := "api " + health.Status
					if health.Version != nil {
						line += " (version " + *health.Version + ")"
					}
					_, err := fmt.Fprintf(w, "%s\nnetwork %s\n", line, state.Kind)
					return err
				})
			})
		},
	}
}

func newTodosCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "todos",
		Short: "List the demo todo items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				todos, err := a.Todos.List(ctx)
				if err != nil {
					return err
				}
				return c.render(todos, func(w io.Writer) error { return writeTodos(w, todos) })
			})
		},
	}
}

func newLoginCmd(c *cli) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token",
		Long:  "Store an access token in the system keyring, or the token file when no keyring is available. Without --token the token is read from the terminal or stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(token) == "" {
				read, err := c.readToken()
				if err != nil {
					return err
				}
				token = read
			}
			a, closeApp, err := c.newApp()
			if err != nil {
				return err
			}
			defer closeApp()
			if err := a.Login(token); err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.stderr, "Logged in.")
			return err
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token (prompted when empty)")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeApp, err := c.newApp()
			if err != nil {
				return err
			}
			defer closeApp()
			if err := a.Logout(); err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.stderr, "Logged out.")
			return err
		},
	}
}

// readToken prompts without echo on a terminal and reads one line otherwise.
func (c *cli) readToken() (string, error) {
	if f, ok := c.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.stderr, "Access token: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.stderr)
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(c.stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
