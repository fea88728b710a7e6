package indexer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vietddude/swapwatch/internal/core/cursor"
	"github.com/vietddude/swapwatch/internal/indexing/metrics"
	"github.com/vietddude/swapwatch/internal/indexing/recovery"
	"github.com/vietddude/swapwatch/internal/infra/chain"
)

var ErrAlreadyRunning = errors.New("poller already running")

// BatchHandler consumes a fully scanned range. An error keeps the cursor
// where it was.
type BatchHandler interface {
	HandleBatch(ctx context.Context, b Batch) error
}

// PollerConfig wires one feed to its ledger and downstream handler.
type PollerConfig struct {
	Feed    Feed
	Ledger  chain.Ledger
	Cursor  cursor.Manager
	Handler BatchHandler
	Backoff recovery.RetryStrategy

	Interval     time.Duration
	MaxBlockSpan uint64
	// StartBlock is the first block to scan. Zero starts at the head.
	StartBlock uint64
}

// Poller follows the chain head for one feed.
type Poller struct {
	cfg     PollerConfig
	tracker *recovery.Tracker
	running atomic.Bool
	log     *slog.Logger
	wait    func(ctx context.Context, d time.Duration) bool
}

func NewPoller(cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.MaxBlockSpan == 0 {
		cfg.MaxBlockSpan = 500
	}
	if cfg.Backoff == nil {
		cfg.Backoff = recovery.DefaultBackoff(recovery.ClassifyLedgerError)
	}
	return &Poller{
		cfg:     cfg,
		tracker: recovery.NewTracker(cfg.Backoff),
		log:     slog.Default().With("component", "poller", "feed", cfg.Feed.ID),
		wait:    sleep,
	}
}

// Run polls until ctx is cancelled. It returns an error only when the
// backoff strategy gives up.
func (p *Poller) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer p.running.Store(false)

	if err := p.init(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	for {
		err := p.Poll(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if err := p.backoff(ctx, err); err != nil {
				return err
			}
			continue
		}

		p.tracker.Success()
		if !p.wait(ctx, p.cfg.Interval) {
			return nil
		}
	}
}

// Running reports whether Run is active.
func (p *Poller) Running() bool {
	return p.running.Load()
}

// init places the cursor at start_block-1 or at the current head.
func (p *Poller) init(ctx context.Context) error {
	if c, err := p.cfg.Cursor.Get(ctx, p.cfg.Feed.ID); err == nil {
		p.log.Info("Resuming feed", "block", c.CurrentBlock)
		return nil
	}

	for {
		start, err := p.startBlock(ctx)
		if err == nil {
			if _, err := p.cfg.Cursor.Initialize(ctx, p.cfg.Feed.ID, start); err != nil {
				return fmt.Errorf("initialize cursor: %w", err)
			}
			metrics.CursorBlock.WithLabelValues(p.cfg.Feed.ID).Set(float64(start))
			p.log.Info("Feed initialized", "block", start)
			return p.cfg.Cursor.SetState(ctx, p.cfg.Feed.ID, cursor.StatePolling, "initialized")
		}

		delay, ok := p.tracker.Failure(err)
		if !ok {
			return fmt.Errorf("initialize feed %s: %w", p.cfg.Feed.ID, err)
		}
		metrics.PollErrors.WithLabelValues(p.cfg.Feed.ID).Inc()
		p.log.Warn("Head lookup failed", "error", err, "retry_in", delay)
		if !p.wait(ctx, delay) {
			return ctx.Err()
		}
	}
}

func (p *Poller) startBlock(ctx context.Context) (uint64, error) {
	if p.cfg.StartBlock > 0 {
		return p.cfg.StartBlock - 1, nil
	}
	return p.head(ctx)
}

// backoff moves the feed to the backoff state, waits, and resumes polling
// with the cursor untouched.
func (p *Poller) backoff(ctx context.Context, cause error) error {
	delay, ok := p.tracker.Failure(cause)
	if !ok {
		return fmt.Errorf("feed %s: %w", p.cfg.Feed.ID, cause)
	}
	metrics.PollErrors.WithLabelValues(p.cfg.Feed.ID).Inc()
	p.log.Warn("Poll failed",
		"error", cause,
		"attempt", p.tracker.Attempts(),
		"retry_in", delay,
	)
	if err := p.cfg.Cursor.SetState(ctx, p.cfg.Feed.ID, cursor.StateBackoff, cause.Error()); err != nil {
		p.log.Error("Cursor state change failed", "error", err)
	}

	if !p.wait(ctx, delay) {
		return nil
	}
	if err := p.cfg.Cursor.SetState(ctx, p.cfg.Feed.ID, cursor.StatePolling, "retry"); err != nil {
		p.log.Error("Cursor state change failed", "error", err)
	}
	return nil
}

// Poll runs one cycle: scan cursor+1..head, hand the batch downstream and
// advance the cursor to head.
func (p *Poller) Poll(ctx context.Context) error {
	head, err := p.head(ctx)
	if err != nil {
		return err
	}

	c, err := p.cfg.Cursor.Get(ctx, p.cfg.Feed.ID)
	if err != nil {
		return fmt.Errorf("get cursor: %w", err)
	}
	if head <= c.CurrentBlock {
		return nil
	}

	from := c.CurrentBlock + 1
	logs, err := p.scan(ctx, from, head)
	if err != nil {
		return err
	}

	batch := Batch{Feed: p.cfg.Feed, From: from, To: head, Logs: logs}
	if err := p.cfg.Handler.HandleBatch(ctx, batch); err != nil {
		return fmt.Errorf("handle blocks %d-%d: %w", from, head, err)
	}

	if err := p.cfg.Cursor.Advance(ctx, p.cfg.Feed.ID, head); err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	metrics.CursorBlock.WithLabelValues(p.cfg.Feed.ID).Set(float64(head))
	p.log.Debug("Range processed", "from", from, "to", head, "logs", len(logs))
	return nil
}

func (p *Poller) head(ctx context.Context) (uint64, error) {
	start := time.Now()
	head, err := p.cfg.Ledger.CurrentBlockNumber(ctx)
	metrics.RPCLatency.WithLabelValues("eth_blockNumber").Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, fmt.Errorf("get head: %w", err)
	}
	metrics.ChainLatestBlock.WithLabelValues(p.cfg.Feed.ID).Set(float64(head))
	return head, nil
}

// scan collects logs of [from, to] in sub-ranges of at most MaxBlockSpan
// blocks. A range the node refuses is halved and retried; the span starts
// over at MaxBlockSpan on every cycle.
func (p *Poller) scan(ctx context.Context, from, to uint64) ([]types.Log, error) {
	span := p.cfg.MaxBlockSpan
	var all []types.Log

	for lo := from; lo <= to; {
		hi := min(lo+span-1, to)

		start := time.Now()
		logs, err := p.cfg.Ledger.GetLogs(ctx, p.cfg.Feed.Query(lo, hi))
		metrics.RPCLatency.WithLabelValues("eth_getLogs").Observe(time.Since(start).Seconds())

		if errors.Is(err, chain.ErrRangeTooLarge) && span > 1 {
			span = max(span/2, 1)
			p.log.Debug("Shrinking log range", "from", lo, "to", hi, "span", span)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get logs %d-%d: %w", lo, hi, err)
		}

		metrics.LogsFetched.WithLabelValues(p.cfg.Feed.ID).Add(float64(len(logs)))
		all = append(all, logs...)
		lo = hi + 1
	}

	slices.SortStableFunc(all, func(a, b types.Log) int {
		if c := cmp.Compare(a.BlockNumber, b.BlockNumber); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	return all, nil
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
