package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/netmoya/internal/api"
	"github.com/five82/netmoya/internal/catalog"
)

// Config captures everything the network layer needs at startup.
type Config struct {
	Environment  string
	Environments map[string]string // environment name -> base URL

	RequestTimeout  time.Duration
	ResourceTimeout time.Duration

	ProbeURL      string
	ProbeTimeout  time.Duration
	ProbeInterval time.Duration

	Locale         string
	AppVersion     string
	DevicePlatform string
	DeviceModel    string
	OSVersion      string

	PinnedCertsDir string

	// Shapes overrides the response shape per endpoint name.
	Shapes map[string]api.Shape

	LogLevel string
	LogFile  string

	TokenFile   string
	UseKeyring  bool
	MetricsAddr string
}

const (
	defaultConfigPath      = "~/.config/netmoya/config.toml"
	defaultEnvironment     = "development"
	defaultBaseURL         = "https://dummy-json.mock.beeceptor.com/"
	defaultRequestTimeout  = 30 * time.Second
	defaultResourceTimeout = 60 * time.Second
	defaultProbeURL        = "https://clients3.google.com/generate_204"
	defaultProbeTimeout    = 6 * time.Second
	defaultProbeInterval   = 2 * time.Second
	defaultLocale          = "en"
	defaultAppVersion      = "1.0.0"
	defaultLogLevel        = "info"
	defaultLogFile         = "~/.local/state/netmoya/netmoya.log"
	defaultTokenFile       = "~/.config/netmoya/token.toml"
)

var environmentNames = []string{"development", "staging", "production"}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg := Config{
		Environment:     defaultEnvironment,
		Environments:    make(map[string]string, len(environmentNames)),
		Shapes:          map[string]api.Shape{},
		RequestTimeout:  defaultRequestTimeout,
		ResourceTimeout: defaultResourceTimeout,
		ProbeURL:        defaultProbeURL,
		ProbeTimeout:    defaultProbeTimeout,
		ProbeInterval:   defaultProbeInterval,
		Locale:          defaultLocale,
		AppVersion:      defaultAppVersion,
		DevicePlatform:  runtime.GOOS,
		DeviceModel:     runtime.GOARCH,
		OSVersion:       osVersion(),
		LogLevel:        defaultLogLevel,
		LogFile:         mustExpand(defaultLogFile),
		TokenFile:       mustExpand(defaultTokenFile),
		UseKeyring:      true,
	}
	for _, name := range environmentNames {
		cfg.Environments[name] = defaultBaseURL
	}
	return cfg
}

type rawConfig struct {
	Environment     string            `toml:"environment"`
	BaseURL         string            `toml:"base_url"`
	Environments    map[string]string `toml:"environments"`
	RequestTimeout  string            `toml:"request_timeout"`
	ResourceTimeout string            `toml:"resource_timeout"`
	ProbeURL        string            `toml:"probe_url"`
	ProbeTimeout    string            `toml:"probe_timeout"`
	ProbeInterval   string            `toml:"probe_interval"`
	Locale          string            `toml:"locale"`
	AppVersion      string            `toml:"app_version"`
	DevicePlatform  string            `toml:"device_platform"`
	DeviceModel     string            `toml:"device_model"`
	OSVersion       string            `toml:"os_version"`
	PinnedCertsDir  string            `toml:"pinned_certs_dir"`
	LogLevel        string            `toml:"log_level"`
	LogFile         string            `toml:"log_file"`
	TokenFile       string            `toml:"token_file"`
	UseKeyring      *bool             `toml:"use_keyring"`
	MetricsAddr     string            `toml:"metrics_addr"`
	Shapes          map[string]string `toml:"shapes"`
}

// Load locates and parses the netmoya config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.apply(raw); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(raw rawConfig) error {
	if env := strings.ToLower(strings.TrimSpace(raw.Environment)); env != "" {
		c.Environment = env
	}
	if base := strings.TrimSpace(raw.BaseURL); base != "" {
		for _, name := range environmentNames {
			c.Environments[name] = base
		}
	}
	for name, base := range raw.Environments {
		name = strings.ToLower(strings.TrimSpace(name))
		if base = strings.TrimSpace(base); name != "" && base != "" {
			c.Environments[name] = base
		}
	}

	durations := []struct {
		field string
		value string
		dest  *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &c.RequestTimeout},
		{"resource_timeout", raw.ResourceTimeout, &c.ResourceTimeout},
		{"probe_timeout", raw.ProbeTimeout, &c.ProbeTimeout},
		{"probe_interval", raw.ProbeInterval, &c.ProbeInterval},
	}
	for _, d := range durations {
		value := strings.TrimSpace(d.value)
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parse config: %s: %w", d.field, err)
		}
		*d.dest = parsed
	}

	setString(&c.ProbeURL, raw.ProbeURL)
	setString(&c.Locale, raw.Locale)
	setString(&c.AppVersion, raw.AppVersion)
	setString(&c.DevicePlatform, raw.DevicePlatform)
	setString(&c.DeviceModel, raw.DeviceModel)
	setString(&c.OSVersion, raw.OSVersion)
	setString(&c.LogLevel, raw.LogLevel)
	setString(&c.MetricsAddr, raw.MetricsAddr)

	if dir := strings.TrimSpace(raw.PinnedCertsDir); dir != "" {
		c.PinnedCertsDir = mustExpand(dir)
	}
	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		c.LogFile = mustExpand(logFile)
	}
	if tokenFile := strings.TrimSpace(raw.TokenFile); tokenFile != "" {
		c.TokenFile = mustExpand(tokenFile)
	}
	if raw.UseKeyring != nil {
		c.UseKeyring = *raw.UseKeyring
	}
	for name, value := range raw.Shapes {
		shape, err := api.ParseShape(value)
		if err != nil {
			return fmt.Errorf("parse config: shapes.%s: %w", name, err)
		}
		c.Shapes[strings.TrimSpace(name)] = shape
	}
	return nil
}

// Validate checks the invariants the network layer relies on.
func (c Config) Validate() error {
	if _, ok := c.Environments[c.Environment]; !ok {
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if c.RequestTimeout <= 0 || c.ResourceTimeout <= 0 || c.ProbeTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	// Connectivity detection must stay responsive relative to API calls.
	if c.ProbeTimeout >= c.RequestTimeout {
		return fmt.Errorf("probe_timeout %s must be shorter than request_timeout %s", c.ProbeTimeout, c.RequestTimeout)
	}
	if c.ResourceTimeout < c.RequestTimeout {
		return fmt.Errorf("resource_timeout %s must not be shorter than request_timeout %s", c.ResourceTimeout, c.RequestTimeout)
	}
	if err := catalog.CheckShapes(c.Shapes); err != nil {
		return fmt.Errorf("shapes: %w", err)
	}
	return nil
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

func setString(dest *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*dest = trimmed
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading tilde and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
