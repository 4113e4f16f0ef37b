// Package config loads hyperionctl settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/andyle182810/hyperion-go/hyperion"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Application
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Hyperion API
	BaseURL   string        `env:"HYPERION_BASE_URL"   envDefault:"http://127.0.0.1:8080"`
	APIKey    string        `env:"HYPERION_API_KEY"`
	Timeout   time.Duration `env:"HYPERION_TIMEOUT"    envDefault:"10s"`
	RateLimit float64       `env:"HYPERION_RATE_LIMIT" envDefault:"0"`
	RateBurst int           `env:"HYPERION_RATE_BURST" envDefault:"1"`
}

func New() (*Config, error) {
	return parse(env.Options{}) //nolint:exhaustruct
}

// NewFromMap parses the given variables instead of the process environment.
func NewFromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars}) //nolint:exhaustruct
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config

	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Hyperion() hyperion.Config {
	return hyperion.Config{
		BaseURL:   c.BaseURL,
		APIKey:    c.APIKey,
		Timeout:   c.Timeout,
		RateLimit: c.RateLimit,
		RateBurst: c.RateBurst,
	}
}
