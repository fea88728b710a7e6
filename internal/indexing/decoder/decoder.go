// Package decoder turns raw ledger log entries into typed transfer and pool
// swap records. A malformed entry fails on its own; the rest of the batch is
// still decoded.
package decoder

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

var (
	ErrUnexpectedTopic = errors.New("unexpected event signature")
	ErrTopicCount      = errors.New("wrong topic count")
	ErrBadData         = errors.New("malformed event data")
	ErrNotPool         = errors.New("venue does not emit swaps")
)

// DecodeError reports a single log entry that could not be decoded.
type DecodeError struct {
	TxHash   common.Hash
	LogIndex uint
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode log %s#%d: %v", e.TxHash.Hex(), e.LogIndex, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(l types.Log, err error) *DecodeError {
	return &DecodeError{TxHash: l.TxHash, LogIndex: l.Index, Err: err}
}

// Transfer is an ERC-20 movement of any token, as found in a receipt.
type Transfer struct {
	Token  common.Address
	From   common.Address
	To     common.Address
	Amount *big.Int
}

// ParseTransfer decodes an ERC-20 Transfer log regardless of the emitting
// token. ERC-721 transfers carry the id as a fourth topic and are rejected.
func ParseTransfer(l types.Log) (Transfer, error) {
	if len(l.Topics) == 0 || l.Topics[0] != TransferTopic {
		return Transfer{}, ErrUnexpectedTopic
	}
	if len(l.Topics) != 3 {
		return Transfer{}, fmt.Errorf("%w: %d", ErrTopicCount, len(l.Topics))
	}
	values, err := transferEvent.Inputs.NonIndexed().Unpack(l.Data)
	if err != nil {
		return Transfer{}, fmt.Errorf("%w: %w", ErrBadData, err)
	}
	amount, ok := bigAt(values, 0)
	if !ok || amount.Sign() < 0 {
		return Transfer{}, ErrBadData
	}
	return Transfer{
		Token:  l.Address,
		From:   topicAddress(l.Topics[1]),
		To:     topicAddress(l.Topics[2]),
		Amount: amount,
	}, nil
}

// Decoder decodes logs for one monitored token.
type Decoder struct {
	token    common.Address
	decimals int32
}

func New(token common.Address, decimals int32) *Decoder {
	return &Decoder{token: token, decimals: decimals}
}

// Transfer decodes one Transfer log of the monitored token. ok is false for
// entries that are valid but not interesting: removed logs, other tokens and
// mints or burns.
func (d *Decoder) Transfer(l types.Log) (rec domain.TransferRecord, ok bool, err error) {
	if l.Removed || l.Address != d.token {
		return rec, false, nil
	}
	t, err := ParseTransfer(l)
	if err != nil {
		return rec, false, decodeErr(l, err)
	}
	if domain.IsBurnAddress(t.From) || domain.IsBurnAddress(t.To) {
		return rec, false, nil
	}
	return domain.TransferRecord{
		LogPosition: position(l),
		Token:       t.Token,
		From:        t.From,
		To:          t.To,
		Amount:      t.Amount,
		Decimals:    d.decimals,
	}, true, nil
}

// Transfers decodes a batch. Failed entries are returned alongside the
// records that did decode.
func (d *Decoder) Transfers(logs []types.Log) ([]domain.TransferRecord, []error) {
	var (
		out  []domain.TransferRecord
		errs []error
	)
	for _, l := range logs {
		rec, ok, err := d.Transfer(l)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, errs
}

// Swap decodes a pool Swap log using the event shape of the venue kind.
// Deltas are reported from the pool's side: positive means the pool received.
func (d *Decoder) Swap(l types.Log, venue domain.VenueEntry) (swap domain.PoolSwap, ok bool, err error) {
	if l.Removed || l.Address != venue.Address {
		return swap, false, nil
	}

	var delta0, delta1 *big.Int
	switch venue.Kind {
	case domain.VenuePoolV2:
		delta0, delta1, err = unpackV2(l)
	case domain.VenuePoolV3:
		delta0, delta1, err = unpackV3(l)
	default:
		err = fmt.Errorf("%w: %s", ErrNotPool, venue.Kind)
	}
	if err != nil {
		return swap, false, decodeErr(l, err)
	}

	swap = domain.PoolSwap{
		LogPosition: position(l),
		Pool:        l.Address,
		Sender:      topicAddress(l.Topics[1]),
		Recipient:   topicAddress(l.Topics[2]),
	}
	if venue.TokenIsToken0 {
		swap.TokenDelta, swap.PairedDelta = delta0, delta1
	} else {
		swap.TokenDelta, swap.PairedDelta = delta1, delta0
	}
	return swap, true, nil
}

// Swaps decodes a batch of logs from one pool.
func (d *Decoder) Swaps(logs []types.Log, venue domain.VenueEntry) ([]domain.PoolSwap, []error) {
	var (
		out  []domain.PoolSwap
		errs []error
	)
	for _, l := range logs {
		swap, ok, err := d.Swap(l, venue)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			out = append(out, swap)
		}
	}
	return out, errs
}

func unpackV2(l types.Log) (*big.Int, *big.Int, error) {
	if len(l.Topics) == 0 || l.Topics[0] != SwapV2Topic {
		return nil, nil, ErrUnexpectedTopic
	}
	if len(l.Topics) != 3 {
		return nil, nil, fmt.Errorf("%w: %d", ErrTopicCount, len(l.Topics))
	}
	values, err := swapV2Event.Inputs.NonIndexed().Unpack(l.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrBadData, err)
	}
	in0, ok0 := bigAt(values, 0)
	in1, ok1 := bigAt(values, 1)
	out0, ok2 := bigAt(values, 2)
	out1, ok3 := bigAt(values, 3)
	if !ok0 || !ok1 || !ok2 || !ok3 {
		return nil, nil, ErrBadData
	}
	return new(big.Int).Sub(in0, out0), new(big.Int).Sub(in1, out1), nil
}

func unpackV3(l types.Log) (*big.Int, *big.Int, error) {
	if len(l.Topics) == 0 || l.Topics[0] != SwapV3Topic {
		return nil, nil, ErrUnexpectedTopic
	}
	if len(l.Topics) != 3 {
		return nil, nil, fmt.Errorf("%w: %d", ErrTopicCount, len(l.Topics))
	}
	values, err := swapV3Event.Inputs.NonIndexed().Unpack(l.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrBadData, err)
	}
	amount0, ok0 := bigAt(values, 0)
	amount1, ok1 := bigAt(values, 1)
	if !ok0 || !ok1 {
		return nil, nil, ErrBadData
	}
	return amount0, amount1, nil
}

func bigAt(values []any, i int) (*big.Int, bool) {
	if i >= len(values) {
		return nil, false
	}
	v, ok := values[i].(*big.Int)
	return v, ok && v != nil
}

func topicAddress(h common.Hash) common.Address {
	return common.BytesToAddress(h.Bytes())
}

func position(l types.Log) domain.LogPosition {
	return domain.LogPosition{
		TxHash:      l.TxHash,
		BlockNumber: l.BlockNumber,
		LogIndex:    l.Index,
	}
}
