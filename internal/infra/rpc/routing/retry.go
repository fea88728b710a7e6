package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/vietddude/swapwatch/internal/infra/rpc/provider"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig keeps retries short. The poller owns the long backoff.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     3,
	InitialDelay:    500 * time.Millisecond,
	MaxDelay:        5 * time.Second,
	BackoffMultiple: 2.0,
}

// ErrorAction determines how to handle an error.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFailover
	ActionFatal
)

func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFailover:
		return "failover"
	case ActionFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ClassifyError determines the action for a given error.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionRetry
	}

	var rpcErr *provider.RPCError
	if errors.As(err, &rpcErr) {
		if isThrottleMessage(rpcErr.Message) {
			return ActionFailover
		}
		switch rpcErr.Code {
		// Parse error, Invalid Request, Method not found, Invalid params
		case -32700, -32600, -32601, -32602:
			return ActionFatal
		// Limit exceeded: the request itself is too big for any node
		case -32005:
			return ActionFatal
		}
		return ActionRetry
	}

	var statusErr *provider.HTTPStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusForbidden, http.StatusUnauthorized, http.StatusPaymentRequired:
			return ActionFailover
		}
		return ActionRetry
	}

	if isThrottleMessage(err.Error()) {
		return ActionFailover
	}

	// Default to Retry (Network, 5xx, etc)
	return ActionRetry
}

func isThrottleMessage(s string) bool {
	sLower := strings.ToLower(s)
	return strings.Contains(sLower, "too many requests") ||
		strings.Contains(sLower, "forbidden") ||
		strings.Contains(sLower, "quota") ||
		strings.Contains(sLower, "plan limit") ||
		strings.Contains(sLower, "unauthorized") ||
		strings.Contains(sLower, "rate limit") ||
		strings.Contains(sLower, "throttled") ||
		strings.Contains(sLower, "count exceeded")
}

// CallWithRetry executes an RPC call with exponential backoff.
func CallWithRetry(
	ctx context.Context,
	p provider.Provider,
	method string,
	params []any,
	config RetryConfig,
) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		result, err := p.Call(ctx, method, params)
		if err == nil {
			return result, nil
		}

		lastErr = err

		switch ClassifyError(err) {
		case ActionFatal, ActionFailover:
			return nil, err
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		delay := calculateBackoff(attempt, config)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

// CallWithRetryAndFailover tries every provider in router order, retrying
// transient errors on each.
func CallWithRetryAndFailover(
	ctx context.Context,
	router Router,
	method string,
	params []any,
	config RetryConfig,
) ([]byte, error) {
	providers := router.GetAllProviders()
	if len(providers) == 0 {
		return nil, errors.New("no providers configured")
	}

	var lastErr error
	for _, p := range providers {
		start := time.Now()
		result, err := CallWithRetry(ctx, p, method, params, config)
		latency := time.Since(start)
		if err == nil {
			router.RecordSuccess(p.GetName(), latency)
			return result, nil
		}

		lastErr = err
		router.RecordFailure(p.GetName(), err)

		if ClassifyError(err) == ActionFatal {
			return nil, fmt.Errorf("fatal error from provider %s: %w", p.GetName(), err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
