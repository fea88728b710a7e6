package chain

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

var (
	// ErrRangeTooLarge means the node refused a log query for its span or
	// result size. Callers shrink the range and retry.
	ErrRangeTooLarge = errors.New("log query range too large")

	// ErrNotFound is returned for unknown transactions or receipts.
	ErrNotFound = errors.New("not found")
)

// Ledger is the read surface the watcher needs from a chain node.
type Ledger interface {
	// CurrentBlockNumber returns the chain head
	CurrentBlockNumber(ctx context.Context) (uint64, error)

	// GetLogs returns the logs matching q in ascending (block, index) order
	GetLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)

	// GetTransaction returns sender and target of a transaction
	GetTransaction(ctx context.Context, hash common.Hash) (*domain.TxEnvelope, error)

	// GetTransactionReceipt returns every log the transaction emitted
	GetTransactionReceipt(ctx context.Context, hash common.Hash) ([]types.Log, error)
}

// HolderSource answers what share of a token's supply a wallet holds.
type HolderSource interface {
	// HolderPercentage returns the held share in percent (0-100)
	HolderPercentage(ctx context.Context, token, wallet common.Address) (float64, error)
}
