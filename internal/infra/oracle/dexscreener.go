// Package oracle fetches token prices from the DexScreener public API.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

var (
	ErrNoPairs  = errors.New("no trading pairs for token")
	ErrBadPrice = errors.New("pair has no usable price")
)

// HTTPStatusError is a non-200 answer from the API.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("dexscreener: HTTP %d: %s", e.StatusCode, e.Body)
}

type pairsResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	DexID     string              `json:"dexId"`
	PriceUSD  decimal.NullDecimal `json:"priceUsd"`
	MarketCap decimal.NullDecimal `json:"marketCap"`
	FDV       decimal.NullDecimal `json:"fdv"`
	BaseToken struct {
		Address string `json:"address"`
	} `json:"baseToken"`
	Liquidity struct {
		USD decimal.NullDecimal `json:"usd"`
	} `json:"liquidity"`
}

func (p pair) liquidity() decimal.Decimal {
	if p.Liquidity.USD.Valid {
		return p.Liquidity.USD.Decimal
	}
	return decimal.Zero
}

// DexScreener implements valuation.Oracle.
type DexScreener struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

func NewDexScreener(baseURL string, timeout time.Duration) *DexScreener {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DexScreener{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// GetQuote returns the price of token from its deepest pair, preferring pairs
// where token is the base asset.
func (d *DexScreener) GetQuote(ctx context.Context, token common.Address) (domain.Quote, error) {
	url := d.baseURL + "/" + token.Hex()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return domain.Quote{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Quote{}, &HTTPStatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	var parsed pairsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return domain.Quote{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Pairs) == 0 {
		return domain.Quote{}, ErrNoPairs
	}

	p := bestPair(parsed.Pairs, token)
	if !p.PriceUSD.Valid || p.PriceUSD.Decimal.IsNegative() {
		return domain.Quote{}, ErrBadPrice
	}

	q := domain.Quote{
		UnitPriceUSD: p.PriceUSD.Decimal,
		Venue:        p.DexID,
		FetchedAt:    d.now(),
	}
	switch {
	case p.MarketCap.Valid:
		q.MarketCapUSD, q.HasMarketCap = p.MarketCap.Decimal, true
	case p.FDV.Valid:
		q.MarketCapUSD, q.HasMarketCap = p.FDV.Decimal, true
	}
	return q, nil
}

// bestPair picks the highest-liquidity pair quoting token as base, or the
// highest-liquidity pair overall when none does. Ties keep the listed order.
func bestPair(pairs []pair, token common.Address) pair {
	best, bestBase := pairs[0], strings.EqualFold(pairs[0].BaseToken.Address, token.Hex())
	for _, p := range pairs[1:] {
		base := strings.EqualFold(p.BaseToken.Address, token.Hex())
		switch {
		case base && !bestBase:
			best, bestBase = p, true
		case base == bestBase && p.liquidity().GreaterThan(best.liquidity()):
			best = p
		}
	}
	return best
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
