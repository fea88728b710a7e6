package alert

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vietddude/swapwatch/internal/indexing/stats"
)

// SnapshotSource is read by operator commands.
type SnapshotSource interface {
	Snapshot() stats.Snapshot
}

// Reporter answers /ping and /volume from live stats.
type Reporter struct {
	stats   SnapshotSource
	format  Formatter
	minBuy  decimal.Decimal
	minSell decimal.Decimal
}

func NewReporter(src SnapshotSource, format Formatter, minBuy, minSell decimal.Decimal) *Reporter {
	return &Reporter{stats: src, format: format, minBuy: minBuy, minSell: minSell}
}

func (r *Reporter) PingText() string {
	return r.format.Ping(r.stats.Snapshot(), r.minBuy, r.minSell)
}

func (r *Reporter) VolumeText(_ context.Context) string {
	return r.format.Volume(r.stats.Snapshot())
}
