package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var token = common.HexToAddress("0x30a538eFFD91ACeFb1b12CE9Bc0074eD18c9dFc9")

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/"+token.Hex()) {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetQuote(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"pairs":[
		{"dexId":"sushiswap","priceUsd":"0.5","baseToken":{"address":"0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"}},
		{"dexId":"camelot","priceUsd":"0.01234","marketCap":1234567.5,"baseToken":{"address":"0x30a538effd91acefb1b12ce9bc0074ed18c9dfc9"}}
	]}`)

	q, err := NewDexScreener(srv.URL+"/latest/dex/tokens/", time.Second).GetQuote(context.Background(), token)
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if !q.UnitPriceUSD.Equal(decimal.RequireFromString("0.01234")) {
		t.Errorf("price = %s", q.UnitPriceUSD)
	}
	if !q.HasMarketCap || !q.MarketCapUSD.Equal(decimal.RequireFromString("1234567.5")) {
		t.Errorf("market cap = %s (%v)", q.MarketCapUSD, q.HasMarketCap)
	}
	if q.Venue != "camelot" {
		t.Errorf("venue = %s, want the pair with token as base", q.Venue)
	}
}

func TestGetQuoteDeepestPair(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"pairs":[
		{"dexId":"weth-quote","priceUsd":"0.9","liquidity":{"usd":9000000},"baseToken":{"address":"0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"}},
		{"dexId":"shallow","priceUsd":"0.011","liquidity":{"usd":1500},"baseToken":{"address":"0x30a538eFFD91ACeFb1b12CE9Bc0074eD18c9dFc9"}},
		{"dexId":"deep","priceUsd":"0.012","liquidity":{"usd":250000.5},"baseToken":{"address":"0x30a538eFFD91ACeFb1b12CE9Bc0074eD18c9dFc9"}},
		{"dexId":"unknown-depth","priceUsd":"0.013","baseToken":{"address":"0x30a538eFFD91ACeFb1b12CE9Bc0074eD18c9dFc9"}}
	]}`)

	q, err := NewDexScreener(srv.URL, time.Second).GetQuote(context.Background(), token)
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if q.Venue != "deep" || !q.UnitPriceUSD.Equal(decimal.RequireFromString("0.012")) {
		t.Errorf("expected the deepest base pair, got %s at %s", q.Venue, q.UnitPriceUSD)
	}
}

func TestGetQuoteFallbacks(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"pairs":[{"dexId":"uniswap","priceUsd":"2","fdv":900}]}`)

	q, err := NewDexScreener(srv.URL, time.Second).GetQuote(context.Background(), token)
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if q.Venue != "uniswap" || !q.MarketCapUSD.Equal(decimal.NewFromInt(900)) {
		t.Errorf("expected first pair with fdv as market cap, got %+v", q)
	}
}

func TestGetQuoteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"no pairs", http.StatusOK, `{"pairs":null}`, func(err error) bool { return errors.Is(err, ErrNoPairs) }},
		{"no price", http.StatusOK, `{"pairs":[{"dexId":"x"}]}`, func(err error) bool { return errors.Is(err, ErrBadPrice) }},
		{"rate limited", http.StatusTooManyRequests, `slow down`, func(err error) bool {
			var se *HTTPStatusError
			return errors.As(err, &se) && se.StatusCode == 429
		}},
		{"garbage", http.StatusOK, `<html>`, func(err error) bool { return err != nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			_, err := NewDexScreener(srv.URL, time.Second).GetQuote(context.Background(), token)
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}
