package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-telegram/bot"

	"github.com/vietddude/swapwatch/internal/core/config"
	"github.com/vietddude/swapwatch/internal/indexing/valuation"
	"github.com/vietddude/swapwatch/internal/infra/chain"
	"github.com/vietddude/swapwatch/internal/infra/chain/evm"
	"github.com/vietddude/swapwatch/internal/infra/oracle"
	"github.com/vietddude/swapwatch/internal/infra/rpc"
)

// CheckResult is the outcome of one connectivity probe.
type CheckResult struct {
	Name   string
	Detail string
	Err    error
}

// Identity answers who the bot token belongs to.
type Identity interface {
	Username(ctx context.Context) (string, error)
}

type botIdentity struct{ b *bot.Bot }

func (i botIdentity) Username(ctx context.Context) (string, error) {
	me, err := i.b.GetMe(ctx)
	if err != nil {
		return "", err
	}
	return me.Username, nil
}

// CheckDeps are the probed services. Nil fields are built from config.
type CheckDeps struct {
	Ledger   chain.Ledger
	Oracle   valuation.Oracle
	Identity Identity
}

// Check probes the ledger head, a price quote, and the bot credentials.
func Check(ctx context.Context, cfg *config.AppConfig, deps CheckDeps) []CheckResult {
	if deps.Ledger == nil {
		router := rpc.NewRouter()
		for _, p := range cfg.Chain.Providers {
			router.AddProvider(rpc.NewHTTPProvider(p.Name, p.URL, p.Timeout))
		}
		client := rpc.NewClient(router)
		defer client.Close()
		deps.Ledger = evm.NewEVMAdapter(client)
	}
	if deps.Oracle == nil {
		deps.Oracle = oracle.NewDexScreener(cfg.Oracle.URL, cfg.Oracle.Timeout)
	}

	var results []CheckResult

	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	head, err := deps.Ledger.CurrentBlockNumber(probeCtx)
	results = append(results, CheckResult{Name: "ledger", Detail: fmt.Sprintf("head %d", head), Err: err})

	q, err := deps.Oracle.GetQuote(probeCtx, common.HexToAddress(cfg.Token.Address))
	results = append(results, CheckResult{
		Name:   "oracle",
		Detail: fmt.Sprintf("%s $%s on %s", cfg.Token.Symbol, q.UnitPriceUSD.String(), q.Venue),
		Err:    err,
	})

	if deps.Identity == nil {
		b, err := bot.New(cfg.Alerts.BotToken, bot.WithSkipGetMe())
		if err != nil {
			return append(results, CheckResult{Name: "telegram", Err: err})
		}
		deps.Identity = botIdentity{b: b}
	}
	name, err := deps.Identity.Username(probeCtx)
	results = append(results, CheckResult{Name: "telegram", Detail: "@" + name, Err: err})

	for _, r := range results {
		if r.Err != nil {
			slog.Error("Check failed", "check", r.Name, "error", r.Err)
		} else {
			slog.Info("Check passed", "check", r.Name, "detail", r.Detail)
		}
	}
	return results
}
