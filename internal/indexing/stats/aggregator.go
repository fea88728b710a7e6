// Package stats keeps the running daily volume together with per-wallet
// state: which wallets were seen before, who bought for the first time today,
// and who holds a large share of supply.
package stats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/axiomhq/hyperloglog"
	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// HolderSource looks up how much of the supply a wallet holds, in percent.
type HolderSource interface {
	HolderPercentage(ctx context.Context, token, wallet common.Address) (float64, error)
}

// Update is what recording a swap changed.
type Update struct {
	FirstTimeBuyer bool
	TopHolder      bool
	HeldPct        float64
	HasHeldPct     bool

	// Closed is the previous day's totals when this swap started a new day.
	Closed          *domain.DailyVolumeStats
	ClosedNewBuyers int
}

// Snapshot is a consistent read of the aggregator.
type Snapshot struct {
	Daily           domain.DailyVolumeStats `json:"daily"`
	FirstTimeBuyers int                     `json:"first_time_buyers"`
	TopHolders      []Holder                `json:"top_holders"`
	SeenWallets     int                     `json:"seen_wallets"`
}

type Config struct {
	HolderThresholdPct float64
	HolderCapacity     int
}

type Aggregator struct {
	mu          sync.Mutex
	daily       domain.DailyVolumeStats
	traders     *hyperloglog.Sketch
	seen        map[common.Address]struct{}
	firstBuyers map[common.Address]struct{}
	holders     *holderSet

	source HolderSource
	token  common.Address
	now    func() time.Time
	log    *slog.Logger
}

func NewAggregator(cfg Config) *Aggregator {
	now := time.Now
	return &Aggregator{
		daily:       domain.NewDailyVolumeStats(now()),
		traders:     hyperloglog.New14(),
		seen:        make(map[common.Address]struct{}),
		firstBuyers: make(map[common.Address]struct{}),
		holders:     newHolderSet(cfg.HolderThresholdPct, cfg.HolderCapacity),
		now:         now,
		log:         slog.Default().With("component", "stats"),
	}
}

// WithHolderSource enables large-holder tracking for token.
func (a *Aggregator) WithHolderSource(src HolderSource, token common.Address) *Aggregator {
	a.source = src
	a.token = token
	return a
}

// WithClock overrides the wall clock and restarts the current day from it.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.mu.Lock()
	a.now = now
	a.daily = domain.NewDailyVolumeStats(now())
	a.mu.Unlock()
	return a
}

// Record adds a swap to the daily totals and wallet state in one critical
// section. The holder lookup runs before the lock; if it fails the holder
// state is left as it was.
func (a *Aggregator) Record(ctx context.Context, swap domain.ClassifiedSwap, v domain.Valuation) Update {
	var upd Update
	if a.source != nil {
		pct, err := a.source.HolderPercentage(ctx, a.token, swap.Trader)
		if err != nil {
			a.log.Warn("Holder lookup failed", "wallet", swap.Trader.Hex(), "error", err)
		} else {
			upd.HeldPct, upd.HasHeldPct = pct, true
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if closed, newBuyers, rolled := a.rolloverLocked(); rolled {
		upd.Closed = &closed
		upd.ClosedNewBuyers = newBuyers
	}

	if _, ok := a.seen[swap.Trader]; !ok {
		a.seen[swap.Trader] = struct{}{}
		if swap.Direction == domain.DirectionBuy {
			a.firstBuyers[swap.Trader] = struct{}{}
			upd.FirstTimeBuyer = true
		}
	}

	d := &a.daily
	switch swap.Direction {
	case domain.DirectionBuy:
		d.BuyCount++
		d.BuyVolume = d.BuyVolume.Add(v.TokenAmount)
		if v.PairedAmount.Valid {
			d.BuyPairedVolume = d.BuyPairedVolume.Add(v.PairedAmount.Decimal)
		}
		if v.NotionalUSD.Valid {
			d.BuyUSD = d.BuyUSD.Add(v.NotionalUSD.Decimal)
		}
	case domain.DirectionSell:
		d.SellCount++
		d.SellVolume = d.SellVolume.Add(v.TokenAmount)
		if v.PairedAmount.Valid {
			d.SellPairedVolume = d.SellPairedVolume.Add(v.PairedAmount.Decimal)
		}
		if v.NotionalUSD.Valid {
			d.SellUSD = d.SellUSD.Add(v.NotionalUSD.Decimal)
		}
	}
	a.traders.Insert(swap.Trader.Bytes())
	d.UniqueTraders = a.traders.Estimate()

	if upd.HasHeldPct {
		upd.TopHolder = a.holders.offer(swap.Trader, upd.HeldPct)
	} else {
		upd.TopHolder = a.holders.contains(swap.Trader)
	}
	return upd
}

// rolloverLocked starts a new day if the date changed.
func (a *Aggregator) rolloverLocked() (domain.DailyVolumeStats, int, bool) {
	now := a.now()
	if domain.DateKey(now) == a.daily.Date {
		return domain.DailyVolumeStats{}, 0, false
	}
	closed, newBuyers := a.daily, len(a.firstBuyers)
	a.daily = domain.NewDailyVolumeStats(now)
	a.traders = hyperloglog.New14()
	clear(a.firstBuyers)
	a.log.Info("Daily stats rolled over", "closed", closed.Date, "trades", closed.TradeCount())
	return closed, newBuyers, true
}

// Snapshot returns today's totals. A day that has passed without swaps reads
// as empty.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	daily := a.daily
	firstBuyers := len(a.firstBuyers)
	if domain.DateKey(a.now()) != daily.Date {
		daily = domain.NewDailyVolumeStats(a.now())
		firstBuyers = 0
	}
	return Snapshot{
		Daily:           daily,
		FirstTimeBuyers: firstBuyers,
		TopHolders:      a.holders.sorted(),
		SeenWallets:     len(a.seen),
	}
}

// IsFirstTimeBuyer reports whether wallet made its first ever buy today.
func (a *Aggregator) IsFirstTimeBuyer(wallet common.Address) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.firstBuyers[wallet]
	return ok
}
