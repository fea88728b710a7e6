package valuation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

type cachedQuote struct {
	quote    domain.Quote
	cachedAt time.Time
}

// MemoryCache keeps quotes in process for ttl.
type MemoryCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[common.Address]cachedQuote
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[common.Address]cachedQuote),
	}
}

// WithClock overrides the clock used for expiry.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) Get(_ context.Context, token common.Address) (domain.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[token]
	if !ok || c.now().Sub(e.cachedAt) >= c.ttl {
		return domain.Quote{}, false
	}
	return e.quote, true
}

func (c *MemoryCache) Set(_ context.Context, token common.Address, q domain.Quote) {
	c.mu.Lock()
	c.entries[token] = cachedQuote{quote: q, cachedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate drops every cached quote.
func (c *MemoryCache) Invalidate() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// QuoteStore is the Redis side of the quote cache.
type QuoteStore interface {
	GetQuote(ctx context.Context, token string) (domain.Quote, bool, error)
	SetQuote(ctx context.Context, token string, q domain.Quote, ttl time.Duration) error
}

// RedisCache shares quotes between feeds and instances. Redis errors are
// treated as misses.
type RedisCache struct {
	store QuoteStore
	ttl   time.Duration
	log   *slog.Logger
}

func NewRedisCache(store QuoteStore, ttl time.Duration) *RedisCache {
	return &RedisCache{
		store: store,
		ttl:   ttl,
		log:   slog.Default().With("component", "quote-cache"),
	}
}

func (c *RedisCache) Get(ctx context.Context, token common.Address) (domain.Quote, bool) {
	q, found, err := c.store.GetQuote(ctx, token.Hex())
	if err != nil {
		c.log.Warn("Quote cache read failed", "token", token.Hex(), "error", err)
		return domain.Quote{}, false
	}
	return q, found
}

func (c *RedisCache) Set(ctx context.Context, token common.Address, q domain.Quote) {
	if err := c.store.SetQuote(ctx, token.Hex(), q, c.ttl); err != nil {
		c.log.Warn("Quote cache write failed", "token", token.Hex(), "error", err)
	}
}
