package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// Client wraps Redis operations shared by every feed: the quote cache and
// cross-instance dispatch claims.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// Config holds Redis connection configuration. An empty URL disables Redis.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Prefix   string `yaml:"prefix"`
}

// Enabled reports whether a Redis URL was configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return Wrap(rdb, cfg.Prefix), nil
}

// Wrap builds a Client around an existing connection.
func Wrap(rdb *redis.Client, prefix string) *Client {
	if prefix == "" {
		prefix = "swapwatch"
	}
	return &Client{rdb: rdb, prefix: prefix}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Key helpers
func (c *Client) quoteKey(token string) string {
	return fmt.Sprintf("%s:quote:%s", c.prefix, strings.ToLower(token))
}

func (c *Client) claimKey(txHash string) string {
	return fmt.Sprintf("%s:claim:%s", c.prefix, strings.ToLower(txHash))
}

// GetQuote returns a cached quote. found is false on a miss.
func (c *Client) GetQuote(ctx context.Context, token string) (q domain.Quote, found bool, err error) {
	val, err := c.rdb.Get(ctx, c.quoteKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Quote{}, false, nil
	}
	if err != nil {
		return domain.Quote{}, false, fmt.Errorf("get failed: %w", err)
	}
	if err := json.Unmarshal(val, &q); err != nil {
		return domain.Quote{}, false, fmt.Errorf("invalid cached quote: %w", err)
	}
	return q, true, nil
}

// SetQuote stores a quote that expires after ttl.
func (c *Client) SetQuote(ctx context.Context, token string, q domain.Quote, ttl time.Duration) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}
	if err := c.rdb.Set(ctx, c.quoteKey(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// AcquireClaim takes an expiring lock on a transaction so only one instance
// dispatches it.
func (c *Client) AcquireClaim(ctx context.Context, txHash string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, c.claimKey(txHash), "claimed", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}

// ReleaseClaim drops a claim after a failed dispatch.
func (c *Client) ReleaseClaim(ctx context.Context, txHash string) error {
	return c.rdb.Del(ctx, c.claimKey(txHash)).Err()
}
