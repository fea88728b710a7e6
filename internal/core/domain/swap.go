package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Direction is the trade side from the trader's point of view.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// ClassifiedSwap is a transfer or pool swap resolved to a trade.
type ClassifiedSwap struct {
	TransferRecord
	Direction Direction
	Trader    common.Address
	Venue     string
	// PairedAmount is the raw paired-asset leg, nil when unknown.
	PairedAmount   *big.Int
	PairedDecimals int32
	ObservedAt     time.Time
}
