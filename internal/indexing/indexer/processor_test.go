package indexer

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/indexing/alert"
	"github.com/vietddude/swapwatch/internal/indexing/classifier"
	"github.com/vietddude/swapwatch/internal/indexing/decoder"
	"github.com/vietddude/swapwatch/internal/indexing/dedup"
	"github.com/vietddude/swapwatch/internal/indexing/stats"
	"github.com/vietddude/swapwatch/internal/indexing/valuation"
	"github.com/vietddude/swapwatch/internal/indexing/venue"
	"github.com/vietddude/swapwatch/internal/infra/notify"
)

var (
	testPaired = common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1")
	testRouter = common.HexToAddress("0x4752ba5DBc23f44D87826276BF6Fd6b1C372aD24")
	testPool   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	wallet     = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	tx1        = common.HexToHash("0x01")
)

type fakeOracle struct {
	quote domain.Quote
	err   error
	calls int
}

func (f *fakeOracle) GetQuote(ctx context.Context, token common.Address) (domain.Quote, error) {
	f.calls++
	return f.quote, f.err
}

type fakeSink struct {
	sent []notify.Message
	err  error
}

func (f *fakeSink) Send(ctx context.Context, msg notify.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// recordingAlerter keeps every alert handed to the dispatcher.
type recordingAlerter struct {
	*alert.Dispatcher
	alerts []alert.Alert
}

func (r *recordingAlerter) Dispatch(ctx context.Context, a alert.Alert) error {
	r.alerts = append(r.alerts, a)
	return r.Dispatcher.Dispatch(ctx, a)
}

type harness struct {
	proc   *Processor
	ledger *fakeLedger
	oracle *fakeOracle
	sink   *fakeSink
	alerts *recordingAlerter
	set    *dedup.ProcessedSet
	stats  *stats.Aggregator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	reg, err := venue.NewRegistry([]venue.Definition{
		{Address: testRouter.Hex(), Kind: "router", Name: "Uniswap Router"},
		{Address: testPool.Hex(), Kind: "pool-v2", Name: "Camelot", WatchSwaps: true},
	}, testToken, testPaired)
	require.NoError(t, err)

	h := &harness{
		ledger: &fakeLedger{
			txs:      map[common.Hash]*domain.TxEnvelope{},
			receipts: map[common.Hash][]types.Log{},
		},
		oracle: &fakeOracle{quote: domain.Quote{UnitPriceUSD: decimal.RequireFromString("0.002"), Venue: "camelot"}},
		sink:   &fakeSink{},
		set:    dedup.NewProcessedSet(100, time.Minute),
		stats:  stats.NewAggregator(stats.Config{HolderThresholdPct: 1, HolderCapacity: 10}),
	}
	disp := alert.NewDispatcher(h.sink, h.set, alert.Formatter{
		TokenSymbol:  "TALOS",
		PairedSymbol: "WETH",
		ExplorerURL:  "https://arbiscan.io",
	}, alert.Config{SendTimeout: time.Second})
	h.alerts = &recordingAlerter{Dispatcher: disp}

	h.proc = NewProcessor(ProcessorConfig{
		Ledger:  h.ledger,
		Decoder: decoder.New(testToken, 9),
		Classifier: classifier.New(reg,
			classifier.Asset{Address: testToken, Decimals: 9},
			classifier.Asset{Address: testPaired, Decimals: 18}),
		Filter: dedup.NewFilter(h.set, decimal.NewFromInt(10), decimal.NewFromInt(10)),
		Valuer: valuation.NewEngine(h.oracle, valuation.NewMemoryCache(time.Minute)),
		Stats:  h.stats,
		Alerts: h.alerts,
	})
	return h
}

func wholeTokens(n, decimals int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil))
}

func word(v *big.Int) []byte {
	return common.LeftPadBytes(v.Bytes(), 32)
}

func tokenTransfer(tx common.Hash, from, to common.Address, amount *big.Int, index uint) types.Log {
	return types.Log{
		Address:     testToken,
		Topics:      []common.Hash{decoder.TransferTopic, common.BytesToHash(from.Bytes()), common.BytesToHash(to.Bytes())},
		Data:        word(amount),
		BlockNumber: 101,
		TxHash:      tx,
		Index:       index,
	}
}

func transferBatch(logs ...types.Log) Batch {
	return Batch{Feed: TransferFeed(testToken), From: 101, To: 101, Logs: logs}
}

// 50 whole tokens of a 9-decimal token move from the router to the wallet
// at $0.002 each.
func TestRouterBuyScenario(t *testing.T) {
	h := newHarness(t)
	h.ledger.txs[tx1] = &domain.TxEnvelope{Hash: tx1, From: wallet, To: &testRouter}
	batch := transferBatch(tokenTransfer(tx1, testRouter, wallet, wholeTokens(50, 9), 4))

	require.NoError(t, h.proc.HandleBatch(context.Background(), batch))

	require.Len(t, h.alerts.alerts, 1)
	a := h.alerts.alerts[0]
	assert.Equal(t, domain.DirectionBuy, a.Swap.Direction)
	assert.Equal(t, wallet, a.Swap.Trader)
	assert.Equal(t, "Uniswap Router", a.Swap.Venue)
	assert.True(t, a.Valuation.TokenAmount.Equal(decimal.NewFromInt(50)), a.Valuation.TokenAmount.String())
	require.True(t, a.Valuation.NotionalUSD.Valid)
	assert.True(t, a.Valuation.NotionalUSD.Decimal.Equal(decimal.RequireFromString("0.1")))
	assert.True(t, a.Wallet.FirstTimeBuyer)

	require.Len(t, h.sink.sent, 1)
	assert.Contains(t, h.sink.sent[0].Text, "Buy!")
	assert.True(t, h.set.Contains(tx1))
}

func TestRedeliveredBatchDispatchesOnce(t *testing.T) {
	h := newHarness(t)
	h.ledger.txs[tx1] = &domain.TxEnvelope{Hash: tx1, From: wallet, To: &testRouter}
	batch := transferBatch(tokenTransfer(tx1, testRouter, wallet, wholeTokens(50, 9), 4))

	require.NoError(t, h.proc.HandleBatch(context.Background(), batch))
	calls := h.ledger.txCalls
	require.NoError(t, h.proc.HandleBatch(context.Background(), batch))

	assert.Len(t, h.sink.sent, 1)
	assert.Equal(t, calls, h.ledger.txCalls, "processed transactions are not fetched again")
}

func TestOneAlertPerTransaction(t *testing.T) {
	h := newHarness(t)
	h.ledger.txs[tx1] = &domain.TxEnvelope{Hash: tx1, From: wallet, To: &testRouter}
	batch := transferBatch(
		tokenTransfer(tx1, testRouter, wallet, wholeTokens(50, 9), 4),
		tokenTransfer(tx1, testRouter, wallet, wholeTokens(20, 9), 7),
	)

	require.NoError(t, h.proc.HandleBatch(context.Background(), batch))
	assert.Len(t, h.sink.sent, 1)
}

func TestOracleFailureStillDispatches(t *testing.T) {
	h := newHarness(t)
	h.oracle.err = errors.New("503 service unavailable")
	h.ledger.txs[tx1] = &domain.TxEnvelope{Hash: tx1, From: wallet, To: &testRouter}
	batch := transferBatch(tokenTransfer(tx1, testRouter, wallet, wholeTokens(50, 9), 4))

	require.NoError(t, h.proc.HandleBatch(context.Background(), batch))

	require.Len(t, h.alerts.alerts, 1)
	v := h.alerts.alerts[0].Valuation
	assert.False(t, v.UnitPriceUSD.Valid)
	assert.False(t, v.NotionalUSD.Valid)
	require.Len(t, h.sink.sent, 1)
	assert.Contains(t, h.sink.sent[0].Text, "n/a")
}

func TestBelowMinimumNotDispatched(t *testing.T) {
	h := newHarness(t)
	h.ledger.txs[tx1] = &domain.TxEnvelope{Hash: tx1, From: wallet, To: &testRouter}
	batch := transferBatch(tokenTransfer(tx1, testRouter, wallet, wholeTokens(9, 9), 4))

	require.NoError(t, h.proc.HandleBatch(context.Background(), batch))

	assert.Empty(t, h.sink.sent)
	assert.False(t, h.set.Contains(tx1))
	assert.Zero(t, h.oracle.calls)
}

func TestIgnoresNonSwaps(t *testing.T) {
	other := common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	h := newHarness(t)
	h.ledger.txs[tx1] = &domain.TxEnvelope{Hash: tx1, From: wallet, To: &testToken}
	batch := transferBatch(
		tokenTransfer(tx1, wallet, other, wholeTokens(100, 9), 1),
		tokenTransfer(tx1, domain.NullAddress, wallet, wholeTokens(100, 9), 2),
		types.Log{Address: testToken, Topics: []common.Hash{decoder.TransferTopic}, TxHash: tx1, BlockNumber: 101, Index: 3},
	)

	require.NoError(t, h.proc.HandleBatch(context.Background(), batch))
	assert.Empty(t, h.sink.sent)
}

func TestMissingTransactionStillClassifiesVenueTransfer(t *testing.T) {
	h := newHarness(t)
	batch := transferBatch(tokenTransfer(tx1, wallet, testRouter, wholeTokens(50, 9), 4))

	require.NoError(t, h.proc.HandleBatch(context.Background(), batch))

	require.Len(t, h.alerts.alerts, 1)
	assert.Equal(t, domain.DirectionSell, h.alerts.alerts[0].Swap.Direction)
}

func TestLedgerErrorFailsBatch(t *testing.T) {
	h := newHarness(t)
	h.ledger.txErr = errors.New("connection refused")
	batch := transferBatch(tokenTransfer(tx1, testRouter, wallet, wholeTokens(50, 9), 4))

	err := h.proc.HandleBatch(context.Background(), batch)
	require.Error(t, err)
	assert.Empty(t, h.sink.sent)
}

func TestDispatchFailureReleasesClaim(t *testing.T) {
	h := newHarness(t)
	h.sink.err = errors.New("Forbidden: bot was blocked")
	h.ledger.txs[tx1] = &domain.TxEnvelope{Hash: tx1, From: wallet, To: &testRouter}
	batch := transferBatch(tokenTransfer(tx1, testRouter, wallet, wholeTokens(50, 9), 4))

	require.NoError(t, h.proc.HandleBatch(context.Background(), batch))
	assert.False(t, h.set.Contains(tx1))

	h.sink.err = nil
	require.NoError(t, h.proc.HandleBatch(context.Background(), batch))
	assert.Len(t, h.sink.sent, 1)
}

func TestFailedDispatchNotRepeatedWithinBatch(t *testing.T) {
	h := newHarness(t)
	h.sink.err = errors.New("Bad Gateway")
	h.ledger.txs[tx1] = &domain.TxEnvelope{Hash: tx1, From: wallet, To: &testRouter}
	batch := transferBatch(
		tokenTransfer(tx1, testRouter, wallet, wholeTokens(50, 9), 4),
		tokenTransfer(tx1, testRouter, wallet, wholeTokens(20, 9), 7),
	)

	require.NoError(t, h.proc.HandleBatch(context.Background(), batch))

	assert.Len(t, h.alerts.alerts, 1)
	assert.Equal(t, 1, h.stats.Snapshot().Daily.BuyCount)
	assert.False(t, h.set.Contains(tx1))
}

func TestPoolFeedBuy(t *testing.T) {
	h := newHarness(t)
	entry := domain.VenueEntry{
		Address:       testPool,
		Kind:          domain.VenuePoolV2,
		Name:          "Camelot",
		WatchSwaps:    true,
		TokenIsToken0: true,
	}
	feed, err := PoolFeed(entry)
	require.NoError(t, err)

	// The pool takes 0.5 WETH in and pays 50 tokens out.
	var data []byte
	data = append(data, word(big.NewInt(0))...)
	data = append(data, word(wholeTokens(5, 17))...)
	data = append(data, word(wholeTokens(50, 9))...)
	data = append(data, word(big.NewInt(0))...)
	h.ledger.txs[tx1] = &domain.TxEnvelope{Hash: tx1, From: wallet, To: &testRouter}
	batch := Batch{Feed: feed, From: 101, To: 101, Logs: []types.Log{{
		Address:     testPool,
		Topics:      []common.Hash{decoder.SwapV2Topic, common.BytesToHash(testRouter.Bytes()), common.BytesToHash(wallet.Bytes())},
		Data:        data,
		BlockNumber: 101,
		TxHash:      tx1,
		Index:       9,
	}}}

	require.NoError(t, h.proc.HandleBatch(context.Background(), batch))

	require.Len(t, h.alerts.alerts, 1)
	a := h.alerts.alerts[0]
	assert.Equal(t, domain.DirectionBuy, a.Swap.Direction)
	assert.Equal(t, wallet, a.Swap.Trader)
	assert.Equal(t, "Camelot", a.Swap.Venue)
	require.True(t, a.Valuation.PairedAmount.Valid)
	assert.True(t, a.Valuation.PairedAmount.Decimal.Equal(decimal.RequireFromString("0.5")))
}
