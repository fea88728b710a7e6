package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// VenueKind tags the role a venue address plays in a trade.
type VenueKind string

const (
	VenuePoolV2     VenueKind = "pool-v2"
	VenuePoolV3     VenueKind = "pool-v3"
	VenueRouter     VenueKind = "router"
	VenueAggregator VenueKind = "aggregator"
)

// ParseVenueKind validates a configured kind.
func ParseVenueKind(s string) (VenueKind, error) {
	switch k := VenueKind(s); k {
	case VenuePoolV2, VenuePoolV3, VenueRouter, VenueAggregator:
		return k, nil
	default:
		return "", fmt.Errorf("unknown venue kind %q", s)
	}
}

// IsPool reports whether the venue holds liquidity and emits Swap events.
func (k VenueKind) IsPool() bool {
	return k == VenuePoolV2 || k == VenuePoolV3
}

// IsRouting reports whether the venue only forwards trades.
func (k VenueKind) IsRouting() bool {
	return k == VenueRouter || k == VenueAggregator
}

// VenueEntry is one catalogued trading venue.
type VenueEntry struct {
	Address    common.Address
	Kind       VenueKind
	Name       string
	WatchSwaps bool
	// TokenIsToken0 tells pool decoders which side of the pair is the
	// monitored token.
	TokenIsToken0 bool
}
