package gateway

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/coorte/internal/common"
	"github.com/Veraticus/coorte/internal/model"
)

// DefaultBaseURL is the address of a locally running backend.
const DefaultBaseURL = "http://localhost:8000"

// Config holds the backend connection settings.
type Config struct {
	BaseURL string
	Round   string
	Token   string
	Timeout time.Duration
}

// DefaultConfig returns the default backend settings.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Round:   model.DefaultRound,
		Timeout: 120 * time.Second,
	}
}

// Validate checks that the configuration can reach a backend.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: backend URL is required", common.ErrMissingConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: backend URL: %v", common.ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: backend URL must be http or https, got %q", common.ErrInvalidConfig, u.Scheme)
	}
	if strings.TrimSpace(c.Round) == "" {
		return fmt.Errorf("%w: round is required", common.ErrMissingConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative", common.ErrInvalidConfig)
	}
	return nil
}
