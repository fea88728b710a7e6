package alert

import (
	"strings"

	"github.com/shopspring/decimal"
)

type sizeBand struct {
	min    decimal.Decimal
	label  string
	robots int
}

// Bands of the paired-asset leg, largest first.
var sizeBands = []sizeBand{
	{decimal.NewFromInt(10), "🐋 MEGA WHALE", 30},
	{decimal.NewFromInt(5), "🐳 HUGE WHALE", 25},
	{decimal.NewFromInt(2), "🐋 BIG WHALE", 20},
	{decimal.NewFromInt(1), "🐬 WHALE", 15},
	{decimal.RequireFromString("0.5"), "🐬 DOLPHIN", 10},
	{decimal.RequireFromString("0.1"), "🐟 FISH", 5},
	{decimal.Zero, "🦐 SHRIMP", 2},
}

// sizeCategory returns the whale category and size bar for a paired amount.
func sizeCategory(paired decimal.Decimal) (string, string) {
	for _, b := range sizeBands {
		if paired.GreaterThanOrEqual(b.min) {
			return b.label, strings.Repeat("🤖", b.robots)
		}
	}
	last := sizeBands[len(sizeBands)-1]
	return last.label, strings.Repeat("🤖", last.robots)
}

// holderCategory names a wallet by its share of supply.
func holderCategory(pct float64) string {
	switch {
	case pct >= 5:
		return "🐋 Mega Holder"
	case pct >= 2:
		return "🐳 Big Holder"
	case pct >= 1:
		return "🐬 Whale Holder"
	case pct >= 0.5:
		return "🐟 Fish Holder"
	default:
		return "🦐 Small Holder"
	}
}
