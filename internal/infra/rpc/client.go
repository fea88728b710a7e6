package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vietddude/swapwatch/internal/infra/rpc/routing"
)

// Caller is the minimal surface chain adapters depend on.
type Caller interface {
	Call(ctx context.Context, method string, params []any) (json.RawMessage, error)
}

// Client is the high-level interface for making RPC calls.
// This is what application layers should use.
type Client struct {
	router routing.Router
	retry  routing.RetryConfig
}

// NewClient creates a new RPC client over router.
func NewClient(router routing.Router) *Client {
	return &Client{
		router: router,
		retry:  routing.DefaultRetryConfig,
	}
}

// WithRetryConfig overrides the per-provider retry policy.
func (c *Client) WithRetryConfig(cfg routing.RetryConfig) *Client {
	c.retry = cfg
	return c
}

// Call makes an RPC call with retry and provider failover.
func (c *Client) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	result, err := routing.CallWithRetryAndFailover(ctx, c.router, method, params, c.retry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return result, nil
}

// Providers returns the configured providers in current preference order.
func (c *Client) Providers() []Provider {
	return c.router.GetAllProviders()
}

// Close releases every provider.
func (c *Client) Close() error {
	for _, p := range c.router.GetAllProviders() {
		_ = p.Close()
	}
	return nil
}
