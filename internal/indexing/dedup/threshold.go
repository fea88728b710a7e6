package dedup

import (
	"github.com/shopspring/decimal"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// Reason tells why a swap was rejected.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonProcessed Reason = "processed"
	ReasonBelowMin  Reason = "below_min"
)

// Filter applies the processed check and per-side minimum quantities.
// Passing a swap does not record it; that happens after dispatch.
type Filter struct {
	set     *ProcessedSet
	minBuy  decimal.Decimal
	minSell decimal.Decimal
}

func NewFilter(set *ProcessedSet, minBuy, minSell decimal.Decimal) *Filter {
	return &Filter{set: set, minBuy: minBuy, minSell: minSell}
}

// Check returns ReasonNone when the swap should go on to valuation.
func (f *Filter) Check(swap domain.ClassifiedSwap) Reason {
	if f.set.Contains(swap.TxHash) {
		return ReasonProcessed
	}
	qty := decimal.NewFromBigInt(swap.Amount, -swap.Decimals)
	floor := f.minSell
	if swap.Direction == domain.DirectionBuy {
		floor = f.minBuy
	}
	if qty.LessThan(floor) {
		return ReasonBelowMin
	}
	return ReasonNone
}

// Set returns the underlying processed set.
func (f *Filter) Set() *ProcessedSet {
	return f.set
}
