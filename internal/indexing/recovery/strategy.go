package recovery

import (
	"math"
	"sync"
	"time"
)

// RetryStrategy defines how retries should be handled.
type RetryStrategy interface {
	// GetDelay returns the delay for the given attempt (0-indexed).
	GetDelay(attempt int) time.Duration

	// ShouldRetry checks if we should retry based on the error and attempt count.
	ShouldRetry(err error, attempt int) bool
}

// ExponentialBackoff doubles the delay per attempt up to MaxDelay.
// MaxAttempts of 0 retries forever.
type ExponentialBackoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	Classifier   Classifier
}

// DefaultBackoff returns the poller defaults: 10s, 20s, 40s, then 60s.
func DefaultBackoff(classifier Classifier) *ExponentialBackoff {
	return NewBackoff(10*time.Second, 60*time.Second, classifier)
}

func NewBackoff(initial, maxDelay time.Duration, classifier Classifier) *ExponentialBackoff {
	if classifier == nil {
		classifier = ClassifyLedgerError
	}
	if maxDelay < initial {
		maxDelay = initial
	}
	return &ExponentialBackoff{
		InitialDelay: initial,
		MaxDelay:     maxDelay,
		Classifier:   classifier,
	}
}

// GetDelay calculates delay: InitialDelay * 2^attempt
func (s *ExponentialBackoff) GetDelay(attempt int) time.Duration {
	delay := float64(s.InitialDelay) * math.Pow(2, float64(attempt))
	if delay > float64(s.MaxDelay) {
		return s.MaxDelay
	}
	return time.Duration(delay)
}

// ShouldRetry reports whether a failed cycle should be retried later.
func (s *ExponentialBackoff) ShouldRetry(err error, attempt int) bool {
	if s.MaxAttempts > 0 && attempt >= s.MaxAttempts {
		return false
	}
	return s.Classifier(err) != CategoryShutdown
}

// Tracker counts consecutive failures of one feed.
type Tracker struct {
	strategy RetryStrategy

	mu       sync.Mutex
	attempts int
	lastErr  error
}

func NewTracker(strategy RetryStrategy) *Tracker {
	return &Tracker{strategy: strategy}
}

// Failure records a failed cycle and returns how long to wait. ok is false
// when the strategy gives up.
func (t *Tracker) Failure(err error) (delay time.Duration, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.strategy.ShouldRetry(err, t.attempts) {
		return 0, false
	}
	delay = t.strategy.GetDelay(t.attempts)
	t.attempts++
	t.lastErr = err
	return delay, true
}

// Success resets the failure count.
func (t *Tracker) Success() {
	t.mu.Lock()
	t.attempts = 0
	t.lastErr = nil
	t.mu.Unlock()
}

// Attempts returns the number of consecutive failures.
func (t *Tracker) Attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

// LastError returns the most recent failure, nil after a success.
func (t *Tracker) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}
