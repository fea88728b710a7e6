package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// NullAddress is the mint/burn counterparty.
	NullAddress = common.Address{}
	// DeadAddress is the conventional burn sink.
	DeadAddress = common.HexToAddress("0x000000000000000000000000000000000000dEaD")
)

// IsBurnAddress reports whether addr is the null or dead address.
func IsBurnAddress(addr common.Address) bool {
	return addr == NullAddress || addr == DeadAddress
}

// LogPosition orders events inside a feed.
type LogPosition struct {
	TxHash      common.Hash
	BlockNumber uint64
	LogIndex    uint
}

// Before reports whether p sorts before o by (block, log index).
func (p LogPosition) Before(o LogPosition) bool {
	if p.BlockNumber != o.BlockNumber {
		return p.BlockNumber < o.BlockNumber
	}
	return p.LogIndex < o.LogIndex
}

// TransferRecord is one decoded ERC-20 Transfer of the monitored token.
type TransferRecord struct {
	LogPosition
	Token    common.Address
	From     common.Address
	To       common.Address
	Amount   *big.Int
	Decimals int32
}

// PoolSwap is a Swap event emitted by a pool, with deltas seen from the pool:
// a negative delta means the pool paid that asset out.
type PoolSwap struct {
	LogPosition
	Pool        common.Address
	Sender      common.Address
	Recipient   common.Address
	TokenDelta  *big.Int
	PairedDelta *big.Int
}
