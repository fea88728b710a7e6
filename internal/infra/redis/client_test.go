package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/swapwatch/internal/core/domain"
)

const talos = "0x30a538eFFD91ACeFb1b12CE9Bc0074eD18c9dFc9"

func TestGetQuote_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := Wrap(db, "")

	mock.ExpectGet("swapwatch:quote:0x30a538effd91acefb1b12ce9bc0074ed18c9dfc9").RedisNil()

	_, found, err := c.GetQuote(context.Background(), talos)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetQuote_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := Wrap(db, "test")

	want := domain.Quote{
		UnitPriceUSD: decimal.RequireFromString("0.00123"),
		MarketCapUSD: decimal.NewFromInt(1200000),
		HasMarketCap: true,
		Venue:        "camelot",
		FetchedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(want)
	require.NoError(t, err)
	mock.ExpectGet("test:quote:0x30a538effd91acefb1b12ce9bc0074ed18c9dfc9").SetVal(string(data))

	got, found, err := c.GetQuote(context.Background(), talos)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, want.UnitPriceUSD.Equal(got.UnitPriceUSD))
	assert.True(t, want.MarketCapUSD.Equal(got.MarketCapUSD))
	assert.Equal(t, "camelot", got.Venue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetQuote_Error(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := Wrap(db, "")

	mock.ExpectGet("swapwatch:quote:0x30a538effd91acefb1b12ce9bc0074ed18c9dfc9").SetErr(errors.New("connection refused"))

	_, found, err := c.GetQuote(context.Background(), talos)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestSetQuote(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := Wrap(db, "")

	q := domain.Quote{UnitPriceUSD: decimal.RequireFromString("0.5"), Venue: "uniswap"}
	data, err := json.Marshal(q)
	require.NoError(t, err)
	mock.ExpectSet("swapwatch:quote:0x30a538effd91acefb1b12ce9bc0074ed18c9dfc9", data, 30*time.Second).SetVal("OK")

	require.NoError(t, c.SetQuote(context.Background(), talos, q, 30*time.Second))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaims(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := Wrap(db, "")
	ctx := context.Background()

	mock.ExpectSetNX("swapwatch:claim:0xabc", "claimed", time.Minute).SetVal(true)
	mock.ExpectSetNX("swapwatch:claim:0xabc", "claimed", time.Minute).SetVal(false)
	mock.ExpectDel("swapwatch:claim:0xabc").SetVal(1)

	ok, err := c.AcquireClaim(ctx, "0xABC", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireClaim(ctx, "0xabc", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseClaim(ctx, "0xabc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
