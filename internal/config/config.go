// Package config handles the XDG configuration directory, environment
// settings and file paths.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// AppName is the application directory name.
	AppName = "authdemo"

	// SessionFile holds the auth service cookies of the CLI session.
	SessionFile = "session.json"

	// SyncDBFile is the organization sync guard database.
	SyncDBFile = "orgsync.db"

	// OAuthClientFile is the Google OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored Google OAuth token filename.
	TokenFile = "token.json"

	// UIFile holds UI overrides.
	UIFile = "ui.yaml"

	// MinSessionSecret is the minimum length of SESSION_SECRET.
	MinSessionSecret = 32
)

// Defaults for optional settings.
const (
	DefaultTasksTable    = "todos"
	DefaultListenAddr    = ":8080"
	DefaultPublicBaseURL = "http://localhost:8080"
)

var (
	// ErrNoAuthURL is returned when NEON_AUTH_URL is not set.
	ErrNoAuthURL = errors.New("NEON_AUTH_URL is not set")

	// ErrNoTaskBackend is returned when neither NEON_DATA_API_URL nor DATABASE_URL is set.
	ErrNoTaskBackend = errors.New("set NEON_DATA_API_URL or DATABASE_URL")

	// ErrWeakSecret is returned when SESSION_SECRET is missing or too short.
	ErrWeakSecret = fmt.Errorf("SESSION_SECRET must be at least %d bytes", MinSessionSecret)
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	AuthURL       string
	DataAPIURL    string
	DatabaseURL   string
	TasksTable    string
	ListenAddr    string
	PublicBaseURL string
	SessionSecret string
	LogLevel      string

	// UI holds the auth screens settings.
	UI UI
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/authdemo or $HOME/.config/authdemo.
// Settings are left at their defaults; see Load.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:           dir,
		TasksTable:    DefaultTasksTable,
		ListenAddr:    DefaultListenAddr,
		PublicBaseURL: DefaultPublicBaseURL,
		UI:            DefaultUI(),
	}, nil
}

// Load creates a Config and fills it from .env files, the environment and
// ui.yaml. Variables already present in the environment win over .env files.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}
	for _, path := range []string{".env", filepath.Join(cfg.Dir, ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	ui, err := LoadUI(cfg.UIPath())
	if err != nil {
		return nil, err
	}
	cfg.UI = ui
	return cfg, nil
}

func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.AuthURL, "NEON_AUTH_URL")
	set(&c.DataAPIURL, "NEON_DATA_API_URL")
	set(&c.DatabaseURL, "DATABASE_URL")
	set(&c.TasksTable, "TASKS_TABLE")
	set(&c.ListenAddr, "LISTEN_ADDR")
	set(&c.PublicBaseURL, "PUBLIC_BASE_URL")
	set(&c.LogLevel, "LOG_LEVEL")
	c.SessionSecret = os.Getenv("SESSION_SECRET")
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.AuthURL == "" {
		return ErrNoAuthURL
	}
	if err := checkURL("NEON_AUTH_URL", c.AuthURL); err != nil {
		return err
	}
	if c.DataAPIURL == "" && c.DatabaseURL == "" {
		return ErrNoTaskBackend
	}
	if c.DataAPIURL != "" {
		if err := checkURL("NEON_DATA_API_URL", c.DataAPIURL); err != nil {
			return err
		}
	}
	return checkURL("PUBLIC_BASE_URL", c.PublicBaseURL)
}

// ValidateServe checks the additional settings of the HTTP shell.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.SessionSecret) < MinSessionSecret {
		return ErrWeakSecret
	}
	return nil
}

func checkURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s is not a valid URL: %q", name, raw)
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SessionPath returns the path to the stored CLI session cookies.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// SyncDBPath returns the path to the sync guard database.
func (c *Config) SyncDBPath() string {
	return filepath.Join(c.Dir, SyncDBFile)
}

// OAuthClientPath returns the path to the Google OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored Google OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// UIPath returns the path to the UI overrides file.
func (c *Config) UIPath() string {
	return filepath.Join(c.Dir, UIFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}

// HasSession checks if stored CLI session cookies exist.
func (c *Config) HasSession() bool {
	_, err := os.Stat(c.SessionPath())
	return err == nil
}
