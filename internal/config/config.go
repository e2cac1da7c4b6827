// Package config handles the XDG configuration directory, the config file
// and the paths derived from them.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "tasksync"

	// ConfigFile is the optional config filename inside the config directory.
	ConfigFile = "config.yaml"

	// StateFile is the database holding the persisted session.
	StateFile = "state.db"

	// DefaultBaseURL is the backend API root.
	DefaultBaseURL = "https://todo-app-tycc.onrender.com/api/"

	// EnvPrefix prefixes environment overrides, e.g. TASKSYNC_BASE_URL.
	EnvPrefix = "TASKSYNC"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// BaseURL is the backend API root. Always ends with a slash.
	BaseURL string

	// Timeout bounds each command's backend calls. Zero means no bound.
	Timeout time.Duration

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// New creates a Config for the default or specified config directory and
// loads config.yaml from it when present. Environment variables override
// the file.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("timeout", "0s")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	path := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", ConfigFile, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", ConfigFile, err)
	}

	baseURL := strings.TrimSpace(v.GetString("base_url"))
	if baseURL == "" {
		return nil, fmt.Errorf("base_url must not be empty")
	}
	if u, err := url.Parse(baseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base_url: %q", baseURL)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	timeout, err := time.ParseDuration(v.GetString("timeout"))
	if err != nil || timeout < 0 {
		return nil, fmt.Errorf("invalid timeout: %q", v.GetString("timeout"))
	}

	return &Config{Dir: dir, BaseURL: baseURL, Timeout: timeout}, nil
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

// StatePath returns the path to the session database.
func (c *Config) StatePath() string {
	return filepath.Join(c.Dir, StateFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}
