// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// DefaultUserAgent identifies the server to the Bento API.
const DefaultUserAgent = "bento-mcp-server/1.0 (github.com/olgasafonova/bento-mcp-server)"

// Config holds Bento connection and server transport settings.
type Config struct {
	// Bento credentials. The publishable and secret keys form the Basic auth pair.
	PublishableKey string `env:"BENTO_PUBLISHABLE_KEY,required,notEmpty"`
	SecretKey      string `env:"BENTO_SECRET_KEY,required,notEmpty"`
	SiteUUID       string `env:"BENTO_SITE_UUID,required,notEmpty"`

	// BaseURL is the Bento API root, without a trailing slash.
	BaseURL string `env:"BENTO_API_URL" envDefault:"https://app.bentonow.com/api/v1"`

	Timeout    time.Duration `env:"BENTO_TIMEOUT" envDefault:"30s"`
	MaxRetries int           `env:"BENTO_MAX_RETRIES" envDefault:"3"`

	// RateLimit is the outbound request budget in requests per second.
	RateLimit float64 `env:"BENTO_RATE_LIMIT" envDefault:"10"`
	UserAgent string  `env:"BENTO_USER_AGENT"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP transport settings, ignored in stdio mode.
	AuthToken     string `env:"MCP_AUTH_TOKEN"`
	HTTPRateLimit int    `env:"MCP_HTTP_RATE_LIMIT" envDefault:"60"`
	MaxBodyBytes  int64  `env:"MCP_MAX_BODY_BYTES" envDefault:"1048576"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BENTO_API_URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return errors.New("BENTO_TIMEOUT must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("BENTO_MAX_RETRIES must not be negative")
	}
	if c.RateLimit <= 0 {
		return errors.New("BENTO_RATE_LIMIT must be positive")
	}
	if c.HTTPRateLimit < 0 {
		return errors.New("MCP_HTTP_RATE_LIMIT must not be negative")
	}
	return nil
}

// LogValue keeps credentials out of structured logs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("base_url", c.BaseURL),
		slog.String("site_uuid", c.SiteUUID),
		slog.Duration("timeout", c.Timeout),
		slog.Int("max_retries", c.MaxRetries),
		slog.Float64("rate_limit", c.RateLimit),
		slog.Bool("http_auth", c.AuthToken != ""),
	)
}
