package hyperion

import (
	"fmt"
	"time"

	"github.com/andyle182810/hyperion-go/validator"
)

const DefaultTimeout = 10 * time.Second

// Config is copied by New; later changes to the caller's value have no effect.
type Config struct {
	BaseURL string `json:"base_url" validate:"required,http_url"`
	// APIKey is sent as X-API-Key. Empty means no credential.
	APIKey  string        `json:"api_key"`
	Timeout time.Duration `json:"timeout" validate:"gte=0"`
	// RateLimit caps outgoing requests per second. Zero disables throttling.
	RateLimit float64 `json:"rate_limit" validate:"gte=0"`
	RateBurst int     `json:"rate_burst" validate:"gte=0"`
}

func (c Config) Validate() error {
	if err := validator.New().Validate(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	if c.RateLimit > 0 && c.RateBurst == 0 {
		c.RateBurst = 1
	}

	return c
}
