// Package alert turns priced swaps into chat notifications. Richness scales
// with the USD size of the trade, and a failed send is retried once as plain
// text before the alert is dropped.
package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/indexing/metrics"
	"github.com/vietddude/swapwatch/internal/infra/notify"
)

var ErrDispatchFailed = errors.New("alert dispatch failed")

// Marker records dispatch outcomes for a transaction.
type Marker interface {
	Complete(tx common.Hash)
	Release(ctx context.Context, tx common.Hash)
}

type Config struct {
	ImageMinUSD   decimal.Decimal
	VideoMinUSD   decimal.Decimal
	LargeTradeUSD decimal.Decimal
	ImagePath     string
	VideoPath     string
	SendTimeout   time.Duration
}

type Dispatcher struct {
	sink   notify.Sink
	marker Marker
	format Formatter
	cfg    Config
	log    *slog.Logger
}

func NewDispatcher(sink notify.Sink, marker Marker, format Formatter, cfg Config) *Dispatcher {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	return &Dispatcher{
		sink:   sink,
		marker: marker,
		format: format,
		cfg:    cfg,
		log:    slog.Default().With("component", "alert"),
	}
}

// TierFor picks the alert richness from the USD notional. Unknown notional
// gets the plain tier.
func (d *Dispatcher) TierFor(notional decimal.NullDecimal) Tier {
	switch {
	case !notional.Valid:
		return TierText
	case notional.Decimal.GreaterThanOrEqual(d.cfg.VideoMinUSD):
		return TierVideo
	case notional.Decimal.GreaterThanOrEqual(d.cfg.ImageMinUSD):
		return TierImage
	default:
		return TierText
	}
}

func (d *Dispatcher) isWhale(notional decimal.NullDecimal) bool {
	return notional.Valid && d.cfg.LargeTradeUSD.IsPositive() &&
		notional.Decimal.GreaterThanOrEqual(d.cfg.LargeTradeUSD)
}

// message builds the primary message. A tier without configured media is
// sent as text.
func (d *Dispatcher) message(a Alert) (notify.Message, Tier) {
	tier := d.TierFor(a.Valuation.NotionalUSD)
	msg := notify.Message{
		Text:     d.format.Trade(a, d.isWhale(a.Valuation.NotionalUSD)),
		Markdown: true,
	}
	switch {
	case tier == TierVideo && d.cfg.VideoPath != "":
		msg.Media, msg.MediaPath = notify.MediaVideo, d.cfg.VideoPath
	case tier == TierVideo && d.cfg.ImagePath != "":
		msg.Media, msg.MediaPath = notify.MediaPhoto, d.cfg.ImagePath
		tier = TierImage
	case tier == TierImage && d.cfg.ImagePath != "":
		msg.Media, msg.MediaPath = notify.MediaPhoto, d.cfg.ImagePath
	default:
		tier = TierText
	}
	return msg, tier
}

// Dispatch sends the alert and marks its transaction processed on success,
// including a degraded success. No send is started once ctx is done; a send
// already started runs to its own timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, a Alert) error {
	tx := a.Swap.TxHash
	if err := ctx.Err(); err != nil {
		d.marker.Release(context.WithoutCancel(ctx), tx)
		return err
	}

	msg, tier := d.message(a)
	log := d.log.With("alert", a.ID, "tx", tx.Hex(), "direction", a.Swap.Direction)

	if err := d.send(ctx, msg, log); err != nil {
		metrics.AlertsDropped.WithLabelValues(string(a.Swap.Direction)).Inc()
		log.Error("Alert dropped", "error", err)
		d.marker.Release(context.WithoutCancel(ctx), tx)
		return fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}

	d.marker.Complete(tx)
	metrics.AlertsDispatched.WithLabelValues(string(a.Swap.Direction), string(tier)).Inc()
	log.Info("Alert sent",
		"tier", tier,
		"venue", a.Swap.Venue,
		"trader", a.Swap.Trader.Hex(),
		"amount", a.Valuation.TokenAmount.String(),
		"category", Category(a.Valuation),
	)
	return nil
}

// Summary sends the daily report for a closed day. Best effort.
func (d *Dispatcher) Summary(ctx context.Context, day domain.DailyVolumeStats, newBuyers int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := notify.Message{Text: d.format.Summary(day, newBuyers)}
	if err := d.send(ctx, msg, d.log.With("summary", day.Date)); err != nil {
		return fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}
	d.log.Info("Daily summary sent", "date", day.Date, "trades", day.TradeCount())
	return nil
}

// send tries msg, then once more as plain text without media.
func (d *Dispatcher) send(ctx context.Context, msg notify.Message, log *slog.Logger) error {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.SendTimeout)
	defer cancel()

	err := d.sink.Send(sendCtx, msg)
	if err == nil {
		return nil
	}
	log.Warn("Send failed, retrying as plain text", "media", msg.Media, "error", err)

	plain := notify.Message{Text: msg.Text}
	if msg.Markdown {
		plain.Text = stripMarkup(msg.Text)
	}
	retryErr := d.sink.Send(sendCtx, plain)
	if retryErr == nil {
		return nil
	}
	return errors.Join(err, retryErr)
}
