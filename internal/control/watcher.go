// Package control wires configuration into running feeds.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-telegram/bot"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/swapwatch/internal/core/config"
	"github.com/vietddude/swapwatch/internal/core/cursor"
	"github.com/vietddude/swapwatch/internal/indexing/alert"
	"github.com/vietddude/swapwatch/internal/indexing/classifier"
	"github.com/vietddude/swapwatch/internal/indexing/decoder"
	"github.com/vietddude/swapwatch/internal/indexing/dedup"
	"github.com/vietddude/swapwatch/internal/indexing/health"
	"github.com/vietddude/swapwatch/internal/indexing/indexer"
	"github.com/vietddude/swapwatch/internal/indexing/recovery"
	"github.com/vietddude/swapwatch/internal/indexing/stats"
	"github.com/vietddude/swapwatch/internal/indexing/valuation"
	"github.com/vietddude/swapwatch/internal/indexing/venue"
	"github.com/vietddude/swapwatch/internal/infra/chain"
	"github.com/vietddude/swapwatch/internal/infra/chain/evm"
	"github.com/vietddude/swapwatch/internal/infra/notify"
	"github.com/vietddude/swapwatch/internal/infra/oracle"
	redisclient "github.com/vietddude/swapwatch/internal/infra/redis"
	"github.com/vietddude/swapwatch/internal/infra/rpc"
	"github.com/vietddude/swapwatch/internal/infra/storage/memory"
)

// Options replace external dependencies. Nil fields are built from config.
type Options struct {
	Ledger chain.Ledger
	Oracle valuation.Oracle
	Sink   notify.Sink
}

// Watcher is the main application struct that manages the feed lifecycle.
type Watcher struct {
	cfg          *config.AppConfig
	pollers      []*indexer.Poller
	feeds        []string
	cursorMgr    cursor.Manager
	stats        *stats.Aggregator
	healthServer *health.Server
	bot          *bot.Bot
	rpcClient    *rpc.Client
	redisClient  *redisclient.Client
	log          *slog.Logger

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewWatcher builds every component from cfg.
func NewWatcher(cfg *config.AppConfig, opts Options) (*Watcher, error) {
	w := &Watcher{cfg: cfg, log: slog.Default().With("component", "watcher")}

	token := common.HexToAddress(cfg.Token.Address)
	paired := common.HexToAddress(cfg.Paired.Address)

	// 1. Venues
	defs := make([]venue.Definition, 0, len(cfg.Venues))
	for _, v := range cfg.Venues {
		defs = append(defs, venue.Definition{Address: v.Address, Kind: v.Kind, Name: v.Name, WatchSwaps: v.WatchSwaps})
	}
	registry, err := venue.NewRegistry(defs, token, paired)
	if err != nil {
		return nil, fmt.Errorf("venue registry: %w", err)
	}
	w.log.Info("Venues loaded", "count", registry.Size(), "watched_pools", len(registry.WatchedPools()))

	// 2. Ledger
	ledger := opts.Ledger
	if ledger == nil {
		router := rpc.NewRouter()
		for _, p := range cfg.Chain.Providers {
			router.AddProvider(rpc.NewHTTPProvider(p.Name, p.URL, p.Timeout))
		}
		w.rpcClient = rpc.NewClient(router)
		ledger = evm.NewEVMAdapter(w.rpcClient)
	}

	// 3. Optional Redis for shared claims and quotes
	if cfg.Redis.Enabled() {
		w.redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			w.log.Warn("Redis unavailable, using local state only", "error", err)
			w.redisClient = nil
		}
	}

	set := dedup.NewProcessedSet(cfg.Dedup.Capacity, cfg.Dedup.InflightTimeout)
	var quotes valuation.QuoteCache = valuation.NewMemoryCache(cfg.Oracle.TTL)
	if w.redisClient != nil {
		set.WithClaimer(w.redisClient)
		quotes = valuation.NewRedisCache(w.redisClient, cfg.Oracle.TTL)
	}

	// 4. Valuation and stats
	priceOracle := opts.Oracle
	if priceOracle == nil {
		priceOracle = oracle.NewDexScreener(cfg.Oracle.URL, cfg.Oracle.Timeout)
	}
	engine := valuation.NewEngine(priceOracle, quotes)

	w.stats = stats.NewAggregator(stats.Config{
		HolderThresholdPct: cfg.Holders.ThresholdPct,
		HolderCapacity:     cfg.Holders.Capacity,
	})
	if src, ok := ledger.(chain.HolderSource); ok && !cfg.Holders.Disabled {
		w.stats.WithHolderSource(src, token)
	}

	// 5. Alerts
	format := alert.Formatter{
		TokenSymbol:  cfg.Token.Symbol,
		PairedSymbol: cfg.Paired.Symbol,
		ExplorerURL:  cfg.Chain.ExplorerURL,
		Labels:       walletLabels(cfg.WalletLabels),
	}
	minBuy := decimal.NewFromFloat(cfg.Thresholds.MinBuy)
	minSell := decimal.NewFromFloat(cfg.Thresholds.MinSell)

	sink := opts.Sink
	if sink == nil {
		tg, b, err := notify.NewTelegram(cfg.Alerts.BotToken, cfg.Alerts.ChatID)
		if err != nil {
			return nil, err
		}
		sink = tg
		if cfg.Alerts.Commands {
			notify.RegisterCommands(b, alert.NewReporter(w.stats, format, minBuy, minSell))
			w.bot = b
		}
	}

	dispatcher := alert.NewDispatcher(sink, set, format, alert.Config{
		ImageMinUSD:   decimal.NewFromFloat(cfg.Alerts.ImageMinUSD),
		VideoMinUSD:   decimal.NewFromFloat(cfg.Alerts.VideoMinUSD),
		LargeTradeUSD: decimal.NewFromFloat(cfg.Thresholds.LargeTradeUSD),
		ImagePath:     cfg.Alerts.ImagePath,
		VideoPath:     cfg.Alerts.VideoPath,
		SendTimeout:   cfg.Alerts.SendTimeout,
	})

	// 6. Processor shared by every feed
	processor := indexer.NewProcessor(indexer.ProcessorConfig{
		Ledger:  ledger,
		Decoder: decoder.New(token, cfg.Token.Decimals),
		Classifier: classifier.New(registry,
			classifier.Asset{Address: token, Decimals: cfg.Token.Decimals},
			classifier.Asset{Address: paired, Decimals: cfg.Paired.Decimals}),
		Filter: dedup.NewFilter(set, minBuy, minSell),
		Valuer: engine,
		Stats:  w.stats,
		Alerts: dispatcher,
	})

	// 7. Feeds
	feeds := []indexer.Feed{indexer.TransferFeed(token)}
	for _, pool := range registry.WatchedPools() {
		f, err := indexer.PoolFeed(pool)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, f)
	}

	w.cursorMgr = cursor.NewManager(memory.NewCursorRepo())
	w.cursorMgr.SetStateChangeCallback(func(feedID string, t cursor.Transition) {
		w.log.Debug("Feed state changed", "feed", feedID, "from", t.From, "to", t.To, "reason", t.Reason)
	})
	for _, f := range feeds {
		w.pollers = append(w.pollers, indexer.NewPoller(indexer.PollerConfig{
			Feed:         f,
			Ledger:       ledger,
			Cursor:       w.cursorMgr,
			Handler:      processor,
			Backoff:      recovery.NewBackoff(cfg.Poller.BackoffInitial, cfg.Poller.BackoffMax, recovery.ClassifyLedgerError),
			Interval:     cfg.Poller.Interval,
			MaxBlockSpan: cfg.Poller.MaxBlockSpan,
			StartBlock:   cfg.Poller.StartBlock,
		}))
		w.feeds = append(w.feeds, f.ID)
	}

	// 8. Health
	monitor := health.NewMonitor(w.feeds, w.cursorMgr, ledger, health.Thresholds{})
	w.healthServer = health.NewServer(monitor, w.stats, cfg.Server.Port)

	return w, nil
}

// Feeds returns the feed ids in start order.
func (w *Watcher) Feeds() []string {
	return w.feeds
}

// Start launches every feed, the health server and the command bot. It
// returns immediately.
func (w *Watcher) Start(ctx context.Context) error {
	if w.group != nil {
		return errors.New("watcher already started")
	}
	ctx, w.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	w.group = g

	g.Go(func() error {
		w.log.Info("Health server listening", "port", w.cfg.Server.Port)
		if err := w.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.log.Error("Health server failed", "error", err)
		}
		return nil
	})

	for i, p := range w.pollers {
		feedID := w.feeds[i]
		w.log.Info("Starting feed", "feed", feedID)
		g.Go(func() error {
			if err := p.Run(gctx); err != nil {
				w.log.Error("Feed stopped", "feed", feedID, "error", err)
				return err
			}
			return nil
		})
	}

	if w.bot != nil {
		g.Go(func() error {
			w.bot.Start(gctx)
			return nil
		})
	}

	return nil
}

// Wait blocks until every feed has stopped.
func (w *Watcher) Wait() error {
	if w.group == nil {
		return nil
	}
	return w.group.Wait()
}

// Stop cancels the feeds, waits for them and releases connections. Sends
// already in flight finish on their own timeout.
func (w *Watcher) Stop(ctx context.Context) error {
	w.log.Info("Stopping Watcher...")
	if w.cancel != nil {
		w.cancel()
	}

	var errs []error
	if err := w.healthServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("health server: %w", err))
	}

	done := make(chan error, 1)
	go func() { done <- w.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			errs = append(errs, err)
		}
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("feeds did not stop: %w", ctx.Err()))
	}

	if w.redisClient != nil {
		if err := w.redisClient.Close(); err != nil {
			w.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if w.rpcClient != nil {
		if err := w.rpcClient.Close(); err != nil {
			w.log.Warn("Failed to close RPC client", "error", err)
		}
	}
	return errors.Join(errs...)
}

func walletLabels(in map[string]string) map[common.Address]string {
	out := make(map[common.Address]string, len(in))
	for addr, label := range in {
		out[common.HexToAddress(strings.TrimSpace(addr))] = label
	}
	return out
}
