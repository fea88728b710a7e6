// Package classifier decides whether a token movement is a buy or a sell and
// who the trader is.
//
// Rules, in order:
//  1. exactly one side is a venue: venue sends means BUY, venue receives means
//     SELL, and the trader is the other side;
//  2. neither side is a venue but the transaction called a router or
//     aggregator: the trader is the signer, and the direction comes from how
//     the signer's own movements of the token look in the receipt;
//  3. anything else is discarded.
package classifier

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/indexing/decoder"
)

// Discard explains why a movement produced no swap. It is returned as an
// error so callers can tell it apart with errors.As.
type Discard string

const (
	DiscardBurn          Discard = "burn"
	DiscardBothVenues    Discard = "both_venues"
	DiscardNoVenue       Discard = "no_venue"
	DiscardAmbiguous     Discard = "ambiguous"
	DiscardZeroDelta     Discard = "zero_delta"
	DiscardMixedSigns    Discard = "mixed_signs"
	DiscardTraderIsVenue Discard = "trader_is_venue"
)

func (d Discard) Error() string {
	return "discarded: " + string(d)
}

// Registry is the venue lookup the classifier needs.
type Registry interface {
	Lookup(addr common.Address) (domain.VenueEntry, bool)
}

// Asset identifies a token and its decimals.
type Asset struct {
	Address  common.Address
	Decimals int32
}

// TxContext is what the ledger told us about the enclosing transaction.
// Either field may be nil when the lookup failed.
type TxContext struct {
	Tx      *domain.TxEnvelope
	Receipt []types.Log
}

type Classifier struct {
	venues Registry
	token  Asset
	paired Asset
	now    func() time.Time
}

func New(venues Registry, token, paired Asset) *Classifier {
	return &Classifier{venues: venues, token: token, paired: paired, now: time.Now}
}

// WithClock overrides the observation clock.
func (c *Classifier) WithClock(now func() time.Time) *Classifier {
	c.now = now
	return c
}

// Transfer classifies one monitored-token transfer.
func (c *Classifier) Transfer(rec domain.TransferRecord, txc TxContext) (domain.ClassifiedSwap, error) {
	if domain.IsBurnAddress(rec.From) || domain.IsBurnAddress(rec.To) {
		return domain.ClassifiedSwap{}, DiscardBurn
	}

	fromVenue, fromOK := c.venues.Lookup(rec.From)
	toVenue, toOK := c.venues.Lookup(rec.To)

	var (
		dir    domain.Direction
		trader common.Address
		name   string
	)
	switch {
	case fromOK && toOK:
		return domain.ClassifiedSwap{}, DiscardBothVenues
	case fromOK:
		dir, trader, name = domain.DirectionBuy, rec.To, fromVenue.Name
	case toOK:
		dir, trader, name = domain.DirectionSell, rec.From, toVenue.Name
	default:
		router, ok := c.venues.Lookup(txc.Tx.Target())
		if txc.Tx == nil || !ok || !router.Kind.IsRouting() {
			return domain.ClassifiedSwap{}, DiscardNoVenue
		}
		trader = txc.Tx.From
		d, err := c.signerDirection(trader, rec, txc.Receipt)
		if err != nil {
			return domain.ClassifiedSwap{}, err
		}
		dir, name = d, router.Name
	}

	return domain.ClassifiedSwap{
		TransferRecord: rec,
		Direction:      dir,
		Trader:         trader,
		Venue:          name,
		PairedAmount:   c.pairedFromReceipt(txc.Receipt),
		PairedDecimals: c.paired.Decimals,
		ObservedAt:     c.now(),
	}, nil
}

// signerDirection looks at every movement of the monitored token in the
// receipt. A signer that only received bought; one that only sent sold.
func (c *Classifier) signerDirection(signer common.Address, rec domain.TransferRecord, receipt []types.Log) (domain.Direction, error) {
	received := rec.To == signer
	sent := rec.From == signer
	for _, l := range receipt {
		if l.Address != c.token.Address {
			continue
		}
		t, err := decoder.ParseTransfer(l)
		if err != nil {
			continue
		}
		if t.To == signer {
			received = true
		}
		if t.From == signer {
			sent = true
		}
	}

	switch {
	case received && !sent:
		return domain.DirectionBuy, nil
	case sent && !received:
		return domain.DirectionSell, nil
	default:
		return "", DiscardAmbiguous
	}
}

// pairedFromReceipt takes the largest paired-asset transfer in the receipt as
// the paired leg of the trade. Nil when none is present.
func (c *Classifier) pairedFromReceipt(receipt []types.Log) *big.Int {
	var best *big.Int
	for _, l := range receipt {
		if l.Address != c.paired.Address {
			continue
		}
		t, err := decoder.ParseTransfer(l)
		if err != nil {
			continue
		}
		if best == nil || t.Amount.Cmp(best) > 0 {
			best = t.Amount
		}
	}
	return best
}

// PoolSwap classifies a Swap event read straight from a pool. Deltas are from
// the pool's side, so a pool paying out the token is a BUY.
func (c *Classifier) PoolSwap(swap domain.PoolSwap, pool domain.VenueEntry, txc TxContext) (domain.ClassifiedSwap, error) {
	var dir domain.Direction
	switch ts, ps := swap.TokenDelta.Sign(), swap.PairedDelta.Sign(); {
	case ts == 0:
		return domain.ClassifiedSwap{}, DiscardZeroDelta
	case ts < 0 && ps > 0:
		dir = domain.DirectionBuy
	case ts > 0 && ps < 0:
		dir = domain.DirectionSell
	default:
		return domain.ClassifiedSwap{}, DiscardMixedSigns
	}

	trader := swap.Recipient
	if txc.Tx != nil {
		trader = txc.Tx.From
	}
	if _, isVenue := c.venues.Lookup(trader); isVenue {
		return domain.ClassifiedSwap{}, DiscardTraderIsVenue
	}
	if domain.IsBurnAddress(trader) {
		return domain.ClassifiedSwap{}, DiscardBurn
	}

	rec := domain.TransferRecord{
		LogPosition: swap.LogPosition,
		Token:       c.token.Address,
		Amount:      new(big.Int).Abs(swap.TokenDelta),
		Decimals:    c.token.Decimals,
	}
	if dir == domain.DirectionBuy {
		rec.From, rec.To = swap.Pool, trader
	} else {
		rec.From, rec.To = trader, swap.Pool
	}

	return domain.ClassifiedSwap{
		TransferRecord: rec,
		Direction:      dir,
		Trader:         trader,
		Venue:          pool.Name,
		PairedAmount:   new(big.Int).Abs(swap.PairedDelta),
		PairedDecimals: c.paired.Decimals,
		ObservedAt:     c.now(),
	}, nil
}
