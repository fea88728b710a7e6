package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a price oracle answer for one token.
type Quote struct {
	UnitPriceUSD decimal.Decimal `json:"unit_price_usd"`
	MarketCapUSD decimal.Decimal `json:"market_cap_usd"`
	HasMarketCap bool            `json:"has_market_cap"`
	Venue        string          `json:"venue"`
	FetchedAt    time.Time       `json:"fetched_at"`
}

// Valuation holds the exact amounts of a swap. Null fields mean the value is
// unknown, which is different from zero.
type Valuation struct {
	TokenAmount  decimal.Decimal
	PairedAmount decimal.NullDecimal
	UnitPriceUSD decimal.NullDecimal
	NotionalUSD  decimal.NullDecimal
	MarketCapUSD decimal.NullDecimal
	AsOf         time.Time
}
