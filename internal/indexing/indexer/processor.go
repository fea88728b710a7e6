package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/indexing/alert"
	"github.com/vietddude/swapwatch/internal/indexing/classifier"
	"github.com/vietddude/swapwatch/internal/indexing/decoder"
	"github.com/vietddude/swapwatch/internal/indexing/dedup"
	"github.com/vietddude/swapwatch/internal/indexing/metrics"
	"github.com/vietddude/swapwatch/internal/indexing/stats"
	"github.com/vietddude/swapwatch/internal/infra/chain"
)

const defaultFetchConcurrency = 8

// Valuer prices a classified swap.
type Valuer interface {
	Value(ctx context.Context, swap domain.ClassifiedSwap) domain.Valuation
}

// Recorder folds a priced swap into running statistics.
type Recorder interface {
	Record(ctx context.Context, swap domain.ClassifiedSwap, v domain.Valuation) stats.Update
}

// Alerter announces swaps and closed days.
type Alerter interface {
	Dispatch(ctx context.Context, a alert.Alert) error
	Summary(ctx context.Context, day domain.DailyVolumeStats, newBuyers int) error
}

// ProcessorConfig holds the stages a batch runs through.
type ProcessorConfig struct {
	Ledger     chain.Ledger
	Decoder    *decoder.Decoder
	Classifier *classifier.Classifier
	Filter     *dedup.Filter
	Valuer     Valuer
	Stats      Recorder
	Alerts     Alerter
	// FetchConcurrency caps parallel transaction lookups per batch.
	FetchConcurrency int
}

// Processor runs scanned batches through decode, classify, filter, value,
// stats and dispatch. It is shared by all feeds.
type Processor struct {
	cfg   ProcessorConfig
	log   *slog.Logger
	newID func() string
}

func NewProcessor(cfg ProcessorConfig) *Processor {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = defaultFetchConcurrency
	}
	return &Processor{
		cfg:   cfg,
		log:   slog.Default().With("component", "processor"),
		newID: uuid.NewString,
	}
}

// candidate is a decoded entry waiting for classification.
type candidate struct {
	transfer *domain.TransferRecord
	swap     *domain.PoolSwap
}

func (c candidate) txHash() common.Hash {
	if c.swap != nil {
		return c.swap.TxHash
	}
	return c.transfer.TxHash
}

// HandleBatch implements BatchHandler. Only ledger failures are returned;
// per-entry problems are logged and skipped.
func (p *Processor) HandleBatch(ctx context.Context, b Batch) error {
	candidates := p.decode(b)
	if len(candidates) == 0 {
		return nil
	}

	txs, err := p.fetch(ctx, b.Feed, candidates)
	if err != nil {
		return err
	}

	// A tx whose dispatch failed is released for later batches but must not
	// be retried by its remaining candidates here.
	attempted := make(map[common.Hash]struct{})
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := attempted[c.txHash()]; ok {
			metrics.SwapsFiltered.WithLabelValues(b.Feed.ID, "attempted").Inc()
			continue
		}
		if err := p.handle(ctx, b.Feed, c, txs[c.txHash()], attempted); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) decode(b Batch) []candidate {
	var (
		out  []candidate
		errs []error
	)
	switch b.Feed.Kind {
	case FeedPool:
		swaps, failed := p.cfg.Decoder.Swaps(b.Logs, b.Feed.Pool)
		for i := range swaps {
			out = append(out, candidate{swap: &swaps[i]})
		}
		errs = failed
	default:
		recs, failed := p.cfg.Decoder.Transfers(b.Logs)
		for i := range recs {
			out = append(out, candidate{transfer: &recs[i]})
		}
		errs = failed
	}

	for _, err := range errs {
		metrics.DecodeFailures.WithLabelValues(b.Feed.ID).Inc()
		p.log.Debug("Skipping undecodable log", "feed", b.Feed.ID, "error", err)
	}
	return out
}

// fetch looks up the enclosing transaction of every candidate not already
// dispatched. Unknown transactions get an empty context.
func (p *Processor) fetch(ctx context.Context, feed Feed, candidates []candidate) (map[common.Hash]classifier.TxContext, error) {
	set := p.cfg.Filter.Set()
	wanted := make(map[common.Hash]struct{})
	for _, c := range candidates {
		if h := c.txHash(); !set.Contains(h) {
			wanted[h] = struct{}{}
		}
	}

	var (
		mu  sync.Mutex
		out = make(map[common.Hash]classifier.TxContext, len(wanted))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.FetchConcurrency)

	for h := range wanted {
		g.Go(func() error {
			txc, err := p.txContext(gctx, h, feed.Kind == FeedTransfer)
			if err != nil {
				return err
			}
			mu.Lock()
			out[h] = txc
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Processor) txContext(ctx context.Context, h common.Hash, withReceipt bool) (classifier.TxContext, error) {
	var txc classifier.TxContext

	tx, err := p.cfg.Ledger.GetTransaction(ctx, h)
	switch {
	case errors.Is(err, chain.ErrNotFound):
		p.log.Debug("Transaction not found", "tx", h.Hex())
	case err != nil:
		return txc, fmt.Errorf("get transaction %s: %w", h.Hex(), err)
	default:
		txc.Tx = tx
	}
	if !withReceipt {
		return txc, nil
	}

	receipt, err := p.cfg.Ledger.GetTransactionReceipt(ctx, h)
	switch {
	case errors.Is(err, chain.ErrNotFound):
		p.log.Debug("Receipt not found", "tx", h.Hex())
	case err != nil:
		return txc, fmt.Errorf("get receipt %s: %w", h.Hex(), err)
	default:
		txc.Receipt = receipt
	}
	return txc, nil
}

func (p *Processor) classify(c candidate, feed Feed, txc classifier.TxContext) (domain.ClassifiedSwap, error) {
	if c.swap != nil {
		return p.cfg.Classifier.PoolSwap(*c.swap, feed.Pool, txc)
	}
	return p.cfg.Classifier.Transfer(*c.transfer, txc)
}

// handle runs one candidate to dispatch. It fails only when ctx ends.
func (p *Processor) handle(ctx context.Context, feed Feed, c candidate, txc classifier.TxContext, attempted map[common.Hash]struct{}) error {
	h := c.txHash()
	if p.cfg.Filter.Set().Contains(h) {
		metrics.SwapsFiltered.WithLabelValues(feed.ID, string(dedup.ReasonProcessed)).Inc()
		return nil
	}

	swap, err := p.classify(c, feed, txc)
	if err != nil {
		var d classifier.Discard
		reason := "unclassified"
		if errors.As(err, &d) {
			reason = string(d)
		}
		metrics.SwapsFiltered.WithLabelValues(feed.ID, reason).Inc()
		p.log.Debug("Discarded", "tx", h.Hex(), "reason", reason)
		return nil
	}
	metrics.SwapsClassified.WithLabelValues(feed.ID, string(swap.Direction)).Inc()

	if reason := p.cfg.Filter.Check(swap); reason != dedup.ReasonNone {
		metrics.SwapsFiltered.WithLabelValues(feed.ID, string(reason)).Inc()
		return nil
	}
	if !p.cfg.Filter.Set().TryClaim(ctx, h) {
		metrics.SwapsFiltered.WithLabelValues(feed.ID, "claimed").Inc()
		return nil
	}
	attempted[h] = struct{}{}

	v := p.cfg.Valuer.Value(ctx, swap)
	upd := p.cfg.Stats.Record(ctx, swap, v)
	if upd.Closed != nil {
		if err := p.cfg.Alerts.Summary(ctx, *upd.Closed, upd.ClosedNewBuyers); err != nil {
			p.log.Warn("Daily summary not sent", "date", upd.Closed.Date, "error", err)
		}
	}

	a := alert.Alert{ID: p.newID(), Swap: swap, Valuation: v, Wallet: upd}
	if err := p.cfg.Alerts.Dispatch(ctx, a); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.log.Warn("Swap not announced", "tx", h.Hex(), "error", err)
	}
	return nil
}
