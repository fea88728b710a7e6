package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyVolumeStats accumulates volume for a single calendar date.
type DailyVolumeStats struct {
	Date             string          `json:"date"`
	BuyCount         int             `json:"buy_count"`
	SellCount        int             `json:"sell_count"`
	BuyVolume        decimal.Decimal `json:"buy_volume"`
	SellVolume       decimal.Decimal `json:"sell_volume"`
	BuyPairedVolume  decimal.Decimal `json:"buy_paired_volume"`
	SellPairedVolume decimal.Decimal `json:"sell_paired_volume"`
	BuyUSD           decimal.Decimal `json:"buy_usd"`
	SellUSD          decimal.Decimal `json:"sell_usd"`
	UniqueTraders    uint64          `json:"unique_traders"`
}

// NewDailyVolumeStats returns empty stats for the date of t.
func NewDailyVolumeStats(t time.Time) DailyVolumeStats {
	return DailyVolumeStats{Date: DateKey(t)}
}

// DateKey is the calendar date used for rollover comparisons.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// NetVolume is buys minus sells in token units.
func (s DailyVolumeStats) NetVolume() decimal.Decimal {
	return s.BuyVolume.Sub(s.SellVolume)
}

// TradeCount is the total number of recorded swaps.
func (s DailyVolumeStats) TradeCount() int {
	return s.BuyCount + s.SellCount
}
