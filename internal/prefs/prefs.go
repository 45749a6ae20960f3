// Package prefs persists the status view's preferences in
// ~/.config/netmoya/prefs.toml. A missing or unreadable file yields the
// defaults.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/netmoya/internal/config"
)

// Prefs are the status view settings that survive restarts.
type Prefs struct {
	Theme      string `toml:"theme"`
	StartView  string `toml:"start_view"`
	FollowLogs bool   `toml:"follow_logs"`
}

const (
	defaultPath = "~/.config/netmoya/prefs.toml"

	ViewProducts = "products"
	ViewLogs     = "logs"
)

// Default returns the preferences used when nothing is stored.
func Default() Prefs {
	return Prefs{Theme: "Dracula", StartView: ViewProducts, FollowLogs: true}
}

// DefaultPath returns the default preferences file.
func DefaultPath() string {
	return defaultPath
}

// Load reads path (DefaultPath when empty). Unknown or blank values are
// replaced by their defaults.
func Load(path string) Prefs {
	p := Default()
	resolved, err := resolve(path)
	if err != nil {
		return p
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return p
	}

	var stored struct {
		Theme      string `toml:"theme"`
		StartView  string `toml:"start_view"`
		FollowLogs *bool  `toml:"follow_logs"`
	}
	if err := toml.Unmarshal(data, &stored); err != nil {
		return p
	}

	if theme := strings.TrimSpace(stored.Theme); theme != "" {
		p.Theme = theme
	}
	switch view := strings.ToLower(strings.TrimSpace(stored.StartView)); view {
	case ViewProducts, ViewLogs:
		p.StartView = view
	}
	if stored.FollowLogs != nil {
		p.FollowLogs = *stored.FollowLogs
	}
	return p
}

// Save writes p to path (DefaultPath when empty), creating directories.
func Save(path string, p Prefs) error {
	resolved, err := resolve(path)
	if err != nil {
		return fmt.Errorf("resolve prefs path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPath
	}
	return config.ExpandPath(path)
}
