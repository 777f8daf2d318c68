// Package config loads client settings from defaults, an optional YAML or TOML
// file, and PUBLICACIONES_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultAPIURL is where the backend listens in development.
	DefaultAPIURL = "http://localhost:3000"
	// DefaultEmailDomain is the institutional suffix required at registration.
	DefaultEmailDomain = "@eia.edu.co"
	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 30 * time.Second

	envPrefix = "PUBLICACIONES_"
	dirName   = ".publicaciones"
)

// Config holds every tunable of the client.
type Config struct {
	APIURL      string
	SessionPath string
	LogFile     string
	LogLevel    string
	Timeout     time.Duration
	EmailDomain string
}

// Dir returns ~/.publicaciones.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Default returns the built-in configuration rooted at dir.
func Default(dir string) Config {
	return Config{
		APIURL:      DefaultAPIURL,
		SessionPath: filepath.Join(dir, "session.json"),
		LogFile:     filepath.Join(dir, "publicaciones.log"),
		LogLevel:    "info",
		Timeout:     DefaultTimeout,
		EmailDomain: DefaultEmailDomain,
	}
}

// Load builds the configuration. When path is empty, ~/.publicaciones/config.yaml
// is used if it exists; an explicit path must exist.
func Load(path string) (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}
	cfg := Default(dir)

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, "config.yaml")
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fileConfig mirrors Config with a string timeout so files can say "15s".
type fileConfig struct {
	APIURL      string `yaml:"api_url" toml:"api_url"`
	SessionPath string `yaml:"session_path" toml:"session_path"`
	LogFile     string `yaml:"log_file" toml:"log_file"`
	LogLevel    string `yaml:"log_level" toml:"log_level"`
	Timeout     string `yaml:"timeout" toml:"timeout"`
	EmailDomain string `yaml:"email_domain" toml:"email_domain"`
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("config.Load: parse yaml %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &fc); err != nil {
			return fmt.Errorf("config.Load: parse toml %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config.Load: unsupported config format %q", ext)
	}

	overlay := map[string]string{
		"API_URL":      fc.APIURL,
		"SESSION":      fc.SessionPath,
		"LOG_FILE":     fc.LogFile,
		"LOG_LEVEL":    fc.LogLevel,
		"TIMEOUT":      fc.Timeout,
		"EMAIL_DOMAIN": fc.EmailDomain,
	}
	return c.applyEnv(func(key string) (string, bool) {
		v := overlay[strings.TrimPrefix(key, envPrefix)]
		return v, v != ""
	})
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(envPrefix + "API_URL"); ok {
		c.APIURL = strings.TrimRight(v, "/")
	}
	if v, ok := lookup(envPrefix + "SESSION"); ok {
		c.SessionPath = v
	}
	if v, ok := lookup(envPrefix + "LOG_FILE"); ok {
		c.LogFile = v
	}
	if v, ok := lookup(envPrefix + "LOG_LEVEL"); ok {
		c.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(envPrefix + "TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid timeout %q: %w", v, err)
		}
		c.Timeout = d
	}
	if v, ok := lookup(envPrefix + "EMAIL_DOMAIN"); ok {
		c.EmailDomain = v
	}
	return nil
}

// Validate rejects settings the client cannot run with.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: api_url must be an absolute http(s) URL, got %q", c.APIURL)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	}
	if c.SessionPath == "" {
		return errors.New("config: session_path is required")
	}
	if !strings.HasPrefix(c.EmailDomain, "@") {
		return fmt.Errorf("config: email_domain must start with @, got %q", c.EmailDomain)
	}
	return nil
}
