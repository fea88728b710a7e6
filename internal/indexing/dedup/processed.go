// Package dedup keeps a swap from being alerted twice and drops swaps too
// small to report.
package dedup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
)

// Claimer is an optional cross-instance lock on a transaction.
type Claimer interface {
	AcquireClaim(ctx context.Context, txHash string, ttl time.Duration) (bool, error)
	ReleaseClaim(ctx context.Context, txHash string) error
}

// ProcessedSet remembers the most recent dispatched transactions. When full,
// the oldest hash is forgotten first. Transactions being dispatched are held
// as in-flight claims that expire after a timeout.
type ProcessedSet struct {
	mu   sync.Mutex
	seen lru.BasicLRU[common.Hash, struct{}]

	inflight map[common.Hash]time.Time
	timeout  time.Duration

	claimer Claimer
	now     func() time.Time
	log     *slog.Logger
}

func NewProcessedSet(capacity int, inflightTimeout time.Duration) *ProcessedSet {
	if capacity <= 0 {
		capacity = 100
	}
	return &ProcessedSet{
		seen:     lru.NewBasicLRU[common.Hash, struct{}](capacity),
		inflight: make(map[common.Hash]time.Time),
		timeout:  inflightTimeout,
		now:      time.Now,
		log:      slog.Default().With("component", "dedup"),
	}
}

// WithClaimer shares claims with other instances.
func (s *ProcessedSet) WithClaimer(c Claimer) *ProcessedSet {
	s.claimer = c
	return s
}

// WithClock overrides the clock used for claim expiry.
func (s *ProcessedSet) WithClock(now func() time.Time) *ProcessedSet {
	s.now = now
	return s
}

// Contains reports whether tx was already dispatched.
func (s *ProcessedSet) Contains(tx common.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen.Contains(tx)
}

// Len returns the number of remembered transactions.
func (s *ProcessedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen.Len()
}

// TryClaim reserves tx for dispatch. It fails if tx is processed or another
// live claim holds it. An expired claim is taken over.
func (s *ProcessedSet) TryClaim(ctx context.Context, tx common.Hash) bool {
	s.mu.Lock()
	if s.seen.Contains(tx) {
		s.mu.Unlock()
		return false
	}
	now := s.now()
	if expiry, held := s.inflight[tx]; held && now.Before(expiry) {
		s.mu.Unlock()
		return false
	}
	s.inflight[tx] = now.Add(s.timeout)
	s.mu.Unlock()

	if s.claimer == nil {
		return true
	}
	ok, err := s.claimer.AcquireClaim(ctx, tx.Hex(), s.timeout)
	if err != nil {
		// Redis is optional; a broken connection falls back to the local claim.
		s.log.Warn("Shared claim failed, using local claim", "tx", tx.Hex(), "error", err)
		return true
	}
	if !ok {
		s.mu.Lock()
		delete(s.inflight, tx)
		s.mu.Unlock()
	}
	return ok
}

// Complete marks a claimed tx as processed.
func (s *ProcessedSet) Complete(tx common.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, tx)
	s.insertLocked(tx)
}

// Release drops a claim so the tx can be retried.
func (s *ProcessedSet) Release(ctx context.Context, tx common.Hash) {
	s.mu.Lock()
	delete(s.inflight, tx)
	s.mu.Unlock()

	if s.claimer != nil {
		if err := s.claimer.ReleaseClaim(ctx, tx.Hex()); err != nil {
			s.log.Warn("Failed to release shared claim", "tx", tx.Hex(), "error", err)
		}
	}
}

// insertLocked never re-adds a present hash, so eviction stays in first
// insertion order.
func (s *ProcessedSet) insertLocked(tx common.Hash) {
	if s.seen.Contains(tx) {
		return
	}
	s.seen.Add(tx, struct{}{})
}
