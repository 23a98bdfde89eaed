package client

import (
	"fmt"

	"github.com/diogo/pplx-search-go/pkg/models"
)

// Client performs synchronous searches against the streaming ask API. Each
// Search call owns its own accumulated snapshot, so independent calls may
// run concurrently on one Client.
type Client struct {
	http        HTTPClientInterface
	token       string
	defaultLang string
	defaultTZ   string
}

// Config holds client configuration options. Token is the opaque bearer
// credential supplied by the credential layer; the client does not inspect
// or refresh it.
type Config struct {
	Token    string
	Language string
	Timezone string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Language: "en-US",
		Timezone: "America/New_York",
	}
}

// New creates a client with the real TLS transport.
func New(cfg Config) (*Client, error) {
	httpClient, err := NewHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return NewWithTransport(cfg, httpClient), nil
}

// NewWithTransport creates a client over the given transport. Tests use
// this with MockHTTPClient.
func NewWithTransport(cfg Config, transport HTTPClientInterface) *Client {
	if cfg.Language == "" {
		cfg.Language = DefaultConfig().Language
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultConfig().Timezone
	}
	return &Client{
		http:        transport,
		token:       cfg.Token,
		defaultLang: cfg.Language,
		defaultTZ:   cfg.Timezone,
	}
}

// Close closes the client and releases transport resources.
func (c *Client) Close() error {
	return c.http.Close()
}

// applyDefaults fills in missing options with client defaults.
func (c *Client) applyDefaults(opts *models.SearchOptions) {
	if opts.Language == "" {
		opts.Language = c.defaultLang
	}
	if opts.Timezone == "" {
		opts.Timezone = c.defaultTZ
	}
}

// streamHeaders returns the per-request headers the ask endpoint requires.
func (c *Client) streamHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.token,
		"Accept":        "text/event-stream",
		"X-Api-Version": apiVersion,
	}
}
