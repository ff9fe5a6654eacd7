// Package config provides application configuration from defaults, an
// optional .env file, an optional YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration
type Config struct {
	APIHost  string `koanf:"api_host"`
	APIPort  string `koanf:"api_port"`
	LogLevel string `koanf:"log_level"`
	LogFile  string `koanf:"log_file"` // Rotated log file, stderr only when empty

	SiteURL      string        `koanf:"site_url"`   // Base URL of the site publishing the index
	IndexPath    string        `koanf:"index_path"` // Resolved against SiteURL
	IndexFile    string        `koanf:"index_file"` // Local index, takes precedence over SiteURL
	DatabaseURL  string        `koanf:"database_url"`
	DBTable      string        `koanf:"db_table"`
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
	Preload      bool          `koanf:"preload"` // Load the index at startup instead of on first open

	CORSOrigins string `koanf:"cors_origins"` // Comma separated
}

// keys recognised in the environment, upper-cased
var envKeys = map[string]bool{
	"API_HOST":      true,
	"API_PORT":      true,
	"LOG_LEVEL":     true,
	"LOG_FILE":      true,
	"SITE_URL":      true,
	"INDEX_PATH":    true,
	"INDEX_FILE":    true,
	"DATABASE_URL":  true,
	"DB_TABLE":      true,
	"FETCH_TIMEOUT": true,
	"PRELOAD":       true,
	"CORS_ORIGINS":  true,
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		APIPort:      "8080",
		APIHost:      "0.0.0.0",
		LogLevel:     "info",
		SiteURL:      "http://localhost:4000",
		IndexPath:    "/search.xml",
		DBTable:      "search_entries",
		FetchTimeout: 30 * time.Second,
		CORSOrigins:  "*",
	}
}

// Load reads configuration. A .env file in the working directory is applied
// to the environment first; path names an optional YAML file; environment
// variables override both.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if !envKeys[key] || value == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration contains usable values
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.APIPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid API port %q", c.APIPort)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.IndexFile != "" {
		if _, err := os.Stat(c.IndexFile); err != nil {
			return fmt.Errorf("index file: %w", err)
		}
	}
	return nil
}

// Origins returns the allowed CORS origins
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
