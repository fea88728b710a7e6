// Package routing handles provider selection and failover logic.
//
// This package contains:
//   - Router: interface for provider ordering and health tracking
//   - DefaultRouter: implementation with a simple circuit breaker
//   - Retry: retry logic with exponential backoff and failover
package routing

import (
	"sort"
	"sync"
	"time"

	"github.com/vietddude/swapwatch/internal/infra/rpc/provider"
)

// Router handles provider selection and health tracking.
type Router interface {
	// AddProvider registers a provider
	AddProvider(p provider.Provider)

	// GetAllProviders returns providers, healthiest first
	GetAllProviders() []provider.Provider

	// RecordSuccess tracks successful calls
	RecordSuccess(providerName string, latency time.Duration)

	// RecordFailure tracks failed calls
	RecordFailure(providerName string, err error)
}

type providerMetrics struct {
	successCount     int
	failureCount     int
	totalLatency     time.Duration
	lastSuccessAt    time.Time
	lastFailureAt    time.Time
	consecutiveFails int
	circuitOpen      bool
}

// ProviderSnapshot is a read-only view of router-side health.
type ProviderSnapshot struct {
	Name             string    `json:"name"`
	SuccessCount     int       `json:"success_count"`
	FailureCount     int       `json:"failure_count"`
	ConsecutiveFails int       `json:"consecutive_fails"`
	CircuitOpen      bool      `json:"circuit_open"`
	LastFailureAt    time.Time `json:"last_failure_at"`
}

// DefaultRouter orders providers by availability. Providers with an open
// circuit are tried last instead of never, so a single endpoint deployment
// keeps working.
type DefaultRouter struct {
	mu             sync.RWMutex
	providers      []provider.Provider
	providerHealth map[string]*providerMetrics
	circuitReset   time.Duration
}

// NewRouter creates an empty router.
func NewRouter() *DefaultRouter {
	return &DefaultRouter{
		providerHealth: make(map[string]*providerMetrics),
		circuitReset:   30 * time.Second,
	}
}

// AddProvider registers a provider.
func (r *DefaultRouter) AddProvider(p provider.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers = append(r.providers, p)
	r.providerHealth[p.GetName()] = &providerMetrics{
		lastSuccessAt: time.Now(),
	}
}

// GetAllProviders returns all providers, healthiest first. Registration
// order breaks ties.
func (r *DefaultRouter) GetAllProviders() []provider.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]provider.Provider, len(r.providers))
	copy(result, r.providers)

	rank := func(p provider.Provider) int {
		m := r.providerHealth[p.GetName()]
		switch {
		case m != nil && m.circuitOpen && time.Since(m.lastFailureAt) < r.circuitReset:
			return 2
		case !p.IsAvailable():
			return 1
		default:
			return 0
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return rank(result[i]) < rank(result[j])
	})
	return result
}

// RecordSuccess records a successful call.
func (r *DefaultRouter) RecordSuccess(providerName string, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	metrics, ok := r.providerHealth[providerName]
	if !ok {
		return
	}

	metrics.successCount++
	metrics.totalLatency += latency
	metrics.lastSuccessAt = time.Now()
	metrics.consecutiveFails = 0
	metrics.circuitOpen = false
}

// RecordFailure records a failed call.
func (r *DefaultRouter) RecordFailure(providerName string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	metrics, ok := r.providerHealth[providerName]
	if !ok {
		return
	}

	metrics.failureCount++
	metrics.lastFailureAt = time.Now()
	metrics.consecutiveFails++

	if metrics.consecutiveFails >= 5 {
		metrics.circuitOpen = true
	}
}

// Snapshot returns router-side health for every provider.
func (r *DefaultRouter) Snapshot() []ProviderSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderSnapshot, 0, len(r.providers))
	for _, p := range r.providers {
		m := r.providerHealth[p.GetName()]
		out = append(out, ProviderSnapshot{
			Name:             p.GetName(),
			SuccessCount:     m.successCount,
			FailureCount:     m.failureCount,
			ConsecutiveFails: m.consecutiveFails,
			CircuitOpen:      m.circuitOpen,
			LastFailureAt:    m.lastFailureAt,
		})
	}
	return out
}
