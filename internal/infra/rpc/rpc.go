// Package rpc provides a resilient JSON-RPC client for the watched ledger.
//
// This package offers:
//   - Multiple provider support with ordered failover
//   - Error classification (retry, failover, fatal)
//   - Throttle and latency monitoring per provider
//
// # Quick Start
//
//	router := rpc.NewRouter()
//	router.AddProvider(rpc.NewHTTPProvider("primary", arbURL, 15*time.Second))
//	router.AddProvider(rpc.NewHTTPProvider("public", publicURL, 15*time.Second))
//
//	client := rpc.NewClient(router)
//	raw, err := client.Call(ctx, "eth_blockNumber", nil)
//
// # Package Structure
//
//   - provider/ - HTTPProvider and monitoring
//   - routing/  - Provider ordering and retry logic
//
// Most types are re-exported at the root level for convenience.
package rpc

import (
	"time"

	"github.com/vietddude/swapwatch/internal/infra/rpc/provider"
	"github.com/vietddude/swapwatch/internal/infra/rpc/routing"
)

// Provider is the core interface for RPC endpoints.
type Provider = provider.Provider

// HTTPProvider implements Provider for JSON-RPC over HTTP.
type HTTPProvider = provider.HTTPProvider

// RPCError is a JSON-RPC error object.
type RPCError = provider.RPCError

// HTTPStatusError is a non-200 transport response.
type HTTPStatusError = provider.HTTPStatusError

// HealthStatus represents the health state of a provider.
type HealthStatus = provider.HealthStatus

// Router handles provider ordering and health tracking.
type Router = routing.Router

// DefaultRouter is the standard Router.
type DefaultRouter = routing.DefaultRouter

// RetryConfig defines retry behavior.
type RetryConfig = routing.RetryConfig

// ErrorAction determines how to handle an error.
type ErrorAction = routing.ErrorAction

const (
	ActionRetry    = routing.ActionRetry
	ActionFailover = routing.ActionFailover
	ActionFatal    = routing.ActionFatal
)

// DefaultRetryConfig provides the client defaults.
var DefaultRetryConfig = routing.DefaultRetryConfig

// NewHTTPProvider creates a new HTTP-based RPC provider.
func NewHTTPProvider(name, endpoint string, timeout time.Duration) *HTTPProvider {
	return provider.NewHTTPProvider(name, endpoint, timeout)
}

// NewRouter creates a new router.
func NewRouter() *DefaultRouter {
	return routing.NewRouter()
}

// ClassifyError determines the action for a given error.
func ClassifyError(err error) ErrorAction {
	return routing.ClassifyError(err)
}
