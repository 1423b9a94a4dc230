package client

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds client settings read from RECSYS_* environment variables.
type Config struct {
	BaseURL     string        `envconfig:"BASE_URL" default:"http://localhost:5000"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	Debug       bool          `envconfig:"DEBUG" default:"false"`

	RateLimit float64 `envconfig:"RATE_LIMIT" default:"20"`
	RateBurst int     `envconfig:"RATE_BURST" default:"10"`

	BreakerFailures uint32        `envconfig:"BREAKER_FAILURES" default:"5"`
	BreakerTimeout  time.Duration `envconfig:"BREAKER_TIMEOUT" default:"30s"`

	HomeLimit int `envconfig:"HOME_LIMIT" default:"10"`
}

// LoadConfig populates Config from environment variables (prefix RECSYS_).
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("RECSYS", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Options converts the config into client options. Zero rate or breaker
// settings disable the matching transport.
func (cfg *Config) Options() []Option {
	opts := []Option{
		WithHTTPTimeout(cfg.HTTPTimeout),
		WithDebugLogging(cfg.Debug),
		WithHomeLimit(cfg.HomeLimit),
	}
	if cfg.RateLimit > 0 && cfg.RateBurst > 0 {
		opts = append(opts, WithRateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	if cfg.BreakerFailures > 0 {
		opts = append(opts, WithCircuitBreaker(BreakerConfig{Failures: cfg.BreakerFailures, Timeout: cfg.BreakerTimeout}))
	}
	return opts
}

// NewFromConfig builds a client from cfg plus any extra options.
func NewFromConfig(cfg *Config, opts ...Option) (*Client, error) {
	return New(cfg.BaseURL, append(cfg.Options(), opts...)...)
}
