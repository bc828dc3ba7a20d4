package pos

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/paypos/backend/internal/domain/integration"
)

const (
	// ProductionBaseURL is the production endpoint of the POS inventory API
	ProductionBaseURL = "https://inventory.izettle.com"

	defaultTimeout          = 30 * time.Second
	defaultMaxResponseBytes = 10 * 1024 * 1024
)

// Errors for POS client configuration
var (
	ErrConfigMissingBaseURL = errors.New("pos: base URL is required")
	ErrConfigInvalidBaseURL = errors.New("pos: base URL is invalid")
)

// Config holds configuration for the POS inventory client
type Config struct {
	// BaseURL is the root of the inventory API
	BaseURL string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
	// MaxResponseBytes caps the size of a response body
	MaxResponseBytes int64
}

// NewConfig creates a configuration with defaults
func NewConfig(baseURL string) *Config {
	return &Config{
		BaseURL:          baseURL,
		Timeout:          defaultTimeout,
		MaxResponseBytes: defaultMaxResponseBytes,
	}
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrConfigInvalidBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = defaultMaxResponseBytes
	}
	return nil
}

// TokenSource returns the bearer token used for a sales channel's requests
type TokenSource interface {
	Token(ctx context.Context, salesChannel *integration.POSSalesChannel) (string, error)
}

// APIKeyTokenSource uses the sales channel's API key as bearer token
type APIKeyTokenSource struct{}

// Token returns the API key of the sales channel
func (APIKeyTokenSource) Token(_ context.Context, salesChannel *integration.POSSalesChannel) (string, error) {
	if salesChannel == nil || salesChannel.APIKey == "" {
		return "", integration.ErrPlatformNotConfigured
	}
	return salesChannel.APIKey, nil
}
