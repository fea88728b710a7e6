// Package valuation converts raw swap amounts into exact decimal values and
// prices them in USD.
package valuation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/indexing/metrics"
)

var ErrOracleUnavailable = errors.New("price oracle unavailable")

// Oracle returns the current USD quote of a token.
type Oracle interface {
	GetQuote(ctx context.Context, token common.Address) (domain.Quote, error)
}

// QuoteCache stores quotes for a bounded time. Get only returns live entries.
type QuoteCache interface {
	Get(ctx context.Context, token common.Address) (domain.Quote, bool)
	Set(ctx context.Context, token common.Address, q domain.Quote)
}

type Engine struct {
	oracle Oracle
	cache  QuoteCache
	now    func() time.Time
	log    *slog.Logger
}

func NewEngine(oracle Oracle, cache QuoteCache) *Engine {
	return &Engine{
		oracle: oracle,
		cache:  cache,
		now:    time.Now,
		log:    slog.Default().With("component", "valuation"),
	}
}

// WithClock overrides the as-of clock.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Quote returns a cached quote or asks the oracle.
func (e *Engine) Quote(ctx context.Context, token common.Address) (domain.Quote, error) {
	if q, ok := e.cache.Get(ctx, token); ok {
		metrics.OracleCache.WithLabelValues("hit").Inc()
		return q, nil
	}
	metrics.OracleCache.WithLabelValues("miss").Inc()

	q, err := e.oracle.GetQuote(ctx, token)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}
	e.cache.Set(ctx, token, q)
	return q, nil
}

// Value prices a swap. AsOf is the quote fetch time. If no quote is
// available the USD fields stay null and the token and paired amounts are
// still filled in.
func (e *Engine) Value(ctx context.Context, swap domain.ClassifiedSwap) domain.Valuation {
	v := domain.Valuation{
		TokenAmount: Amount(swap.Amount, swap.Decimals),
		AsOf:        e.now(),
	}
	if swap.PairedAmount != nil {
		v.PairedAmount = decimal.NewNullDecimal(Amount(swap.PairedAmount, swap.PairedDecimals))
	}

	q, err := e.Quote(ctx, swap.Token)
	if err != nil {
		e.log.Warn("No price available", "token", swap.Token.Hex(), "error", err)
		return v
	}

	if !q.FetchedAt.IsZero() {
		v.AsOf = q.FetchedAt
	}
	v.UnitPriceUSD = decimal.NewNullDecimal(q.UnitPriceUSD)
	v.NotionalUSD = decimal.NewNullDecimal(v.TokenAmount.Mul(q.UnitPriceUSD))
	if q.HasMarketCap {
		v.MarketCapUSD = decimal.NewNullDecimal(q.MarketCapUSD)
	}
	return v
}
