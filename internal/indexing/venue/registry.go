// Package venue holds the catalogue of trading venues: liquidity pools,
// routers and aggregators. A Registry is built once from configuration and
// never mutated afterwards, so lookups need no locking.
package venue

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

// Definition is one configured venue before validation.
type Definition struct {
	Address    string
	Kind       string
	Name       string
	WatchSwaps bool
}

// Registry is a read-only address → venue map.
type Registry struct {
	entries map[common.Address]domain.VenueEntry
}

// NewRegistry validates defs and builds a registry. token and paired are
// used to work out pool token ordering.
func NewRegistry(defs []Definition, token, paired common.Address) (*Registry, error) {
	r := &Registry{entries: make(map[common.Address]domain.VenueEntry, len(defs))}

	// Pools sort their pair by address: token0 is the smaller one.
	tokenIsToken0 := bytes.Compare(token.Bytes(), paired.Bytes()) < 0

	for _, s := range defs {
		if !common.IsHexAddress(s.Address) {
			return nil, fmt.Errorf("venue %q: invalid address", s.Address)
		}
		kind, err := domain.ParseVenueKind(s.Kind)
		if err != nil {
			return nil, fmt.Errorf("venue %s: %w", s.Address, err)
		}
		addr := common.HexToAddress(s.Address)
		if _, dup := r.entries[addr]; dup {
			return nil, fmt.Errorf("venue %s: duplicate address", s.Address)
		}
		name := s.Name
		if name == "" {
			name = defaultName(kind)
		}
		r.entries[addr] = domain.VenueEntry{
			Address:       addr,
			Kind:          kind,
			Name:          name,
			WatchSwaps:    s.WatchSwaps && kind.IsPool(),
			TokenIsToken0: tokenIsToken0,
		}
	}
	return r, nil
}

func defaultName(kind domain.VenueKind) string {
	switch kind {
	case domain.VenueRouter, domain.VenueAggregator:
		return "DEX"
	default:
		return "Pool"
	}
}

// Lookup returns the venue at addr.
func (r *Registry) Lookup(addr common.Address) (domain.VenueEntry, bool) {
	e, ok := r.entries[addr]
	return e, ok
}

// LookupHex is Lookup for a hex string in any letter case.
func (r *Registry) LookupHex(addr string) (domain.VenueEntry, bool) {
	if !common.IsHexAddress(addr) {
		return domain.VenueEntry{}, false
	}
	return r.Lookup(common.HexToAddress(strings.ToLower(addr)))
}

// Contains checks if an address is a known venue.
func (r *Registry) Contains(addr common.Address) bool {
	_, ok := r.entries[addr]
	return ok
}

// IsRouting reports whether addr is a router or aggregator.
func (r *Registry) IsRouting(addr common.Address) bool {
	e, ok := r.entries[addr]
	return ok && e.Kind.IsRouting()
}

// Size returns the number of venues.
func (r *Registry) Size() int {
	return len(r.entries)
}

// WatchedPools returns pools whose Swap events are scanned directly, ordered
// by address.
func (r *Registry) WatchedPools() []domain.VenueEntry {
	var out []domain.VenueEntry
	for _, e := range r.entries {
		if e.WatchSwaps {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address.Bytes(), out[j].Address.Bytes()) < 0
	})
	return out
}

// Entries returns every venue, ordered by address.
func (r *Registry) Entries() []domain.VenueEntry {
	out := make([]domain.VenueEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address.Bytes(), out[j].Address.Bytes()) < 0
	})
	return out
}
