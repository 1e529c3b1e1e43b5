// Package config loads the UniCrew client configuration from a YAML file
// with environment overrides, and resolves the API base URL the way the
// hosted frontend does: explicit setting first, then the web origin plus the
// fixed API path, then a local development default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables honoured on top of the config file.
const (
	EnvAPIBaseURL = "UNICREW_API_URL"
	EnvWebBaseURL = "UNICREW_WEB_URL"
	EnvTokenFile  = "UNICREW_TOKEN_FILE"
	EnvProxyURL   = "UNICREW_PROXY_URL"
)

// defaultAPIBaseURL is the local development fallback.
const defaultAPIBaseURL = "http://127.0.0.1:8000/api/"

// apiPathSuffix joins a web origin to its API root.
const apiPathSuffix = "/api/"

// Config is the client configuration, loaded from a YAML file.
type Config struct {
	// APIBaseURL is the REST API root. When empty it is derived from
	// WebBaseURL, and failing that a local development default is used.
	APIBaseURL string `yaml:"api-base-url"`

	// WebBaseURL is the web frontend origin, used for invite links, for
	// opening pages in a browser and as the API origin fallback.
	WebBaseURL string `yaml:"web-base-url"`

	// TokenFile is where the session token pair is persisted.
	// Defaults to ~/.unicrew/tokens.json.
	TokenFile string `yaml:"token-file"`

	// ProxyURL optionally routes requests through an http, https or socks5
	// proxy.
	ProxyURL string `yaml:"proxy-url"`

	// RequestTimeout bounds general API calls. Defaults to 10s.
	RequestTimeout time.Duration `yaml:"request-timeout"`

	// ListTimeout bounds list/search calls. Defaults to 30s.
	ListTimeout time.Duration `yaml:"list-timeout"`

	// RefreshInterval is the proactive token refresh cadence. Defaults to
	// 14m, one minute under the access token lifetime.
	RefreshInterval time.Duration `yaml:"refresh-interval"`

	// LogDir enables file logging with rotation when set.
	LogDir string `yaml:"log-dir"`

	// Debug raises the log level to debug.
	Debug bool `yaml:"debug"`
}

// Load reads the YAML file at path when it exists, applies environment
// overrides and fills in defaults. A missing file is not an error; a
// malformed one is.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err = yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Defaults only.
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBaseURL)); v != "" {
		c.APIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvWebBaseURL)); v != "" {
		c.WebBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTokenFile)); v != "" {
		c.TokenFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvProxyURL)); v != "" {
		c.ProxyURL = v
	}
}

func (c *Config) applyDefaults() {
	if c.APIBaseURL == "" {
		if c.WebBaseURL != "" {
			c.APIBaseURL = strings.TrimRight(c.WebBaseURL, "/") + apiPathSuffix
		} else {
			c.APIBaseURL = defaultAPIBaseURL
		}
	}
	if !strings.HasSuffix(c.APIBaseURL, "/") {
		c.APIBaseURL += "/"
	}
	if c.TokenFile == "" {
		c.TokenFile = DefaultTokenFile()
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.ListTimeout <= 0 {
		c.ListTimeout = 30 * time.Second
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 14 * time.Minute
	}
}

// DefaultTokenFile returns the standard token file location.
func DefaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tokens.json"
	}
	return filepath.Join(home, ".unicrew", "tokens.json")
}

// DefaultConfigFile returns the standard config file location.
func DefaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".unicrew", "config.yaml")
}
