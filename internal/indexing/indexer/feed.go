package indexer

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/indexing/decoder"
)

// FeedKind selects which logs a feed scans and how they are decoded.
type FeedKind string

const (
	FeedTransfer FeedKind = "transfer"
	FeedPool     FeedKind = "pool"
)

// Feed is one log subscription with its own cursor.
type Feed struct {
	ID        string
	Kind      FeedKind
	Addresses []common.Address
	Topics    [][]common.Hash
	// Pool is the venue of a pool feed.
	Pool domain.VenueEntry
}

// TransferFeed scans Transfer logs emitted by the monitored token.
func TransferFeed(token common.Address) Feed {
	return Feed{
		ID:        string(FeedTransfer),
		Kind:      FeedTransfer,
		Addresses: []common.Address{token},
		Topics:    [][]common.Hash{{decoder.TransferTopic}},
	}
}

// PoolFeed scans Swap logs of one pool. The event shape follows the venue kind.
func PoolFeed(v domain.VenueEntry) (Feed, error) {
	var topic common.Hash
	switch v.Kind {
	case domain.VenuePoolV2:
		topic = decoder.SwapV2Topic
	case domain.VenuePoolV3:
		topic = decoder.SwapV3Topic
	default:
		return Feed{}, fmt.Errorf("venue %s is %s, not a pool", v.Address.Hex(), v.Kind)
	}
	return Feed{
		ID:        string(FeedPool) + ":" + strings.ToLower(v.Address.Hex()),
		Kind:      FeedPool,
		Addresses: []common.Address{v.Address},
		Topics:    [][]common.Hash{{topic}},
		Pool:      v,
	}, nil
}

// Query builds the log filter for an inclusive block range.
func (f Feed) Query(from, to uint64) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: f.Addresses,
		Topics:    f.Topics,
	}
}

// Batch is every log of a feed in [From, To], ordered by (block, log index).
type Batch struct {
	Feed Feed
	From uint64
	To   uint64
	Logs []types.Log
}
