package valuation

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Amount scales a raw integer amount by 10^-decimals without rounding.
func Amount(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}
