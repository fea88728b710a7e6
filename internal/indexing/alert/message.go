package alert

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/vietddude/swapwatch/internal/core/domain"
	"github.com/vietddude/swapwatch/internal/indexing/stats"
)

// Tier is how rich an alert is.
type Tier string

const (
	TierText  Tier = "text"
	TierImage Tier = "image"
	TierVideo Tier = "video"
)

// Alert is a priced swap ready to be announced.
type Alert struct {
	ID        string
	Swap      domain.ClassifiedSwap
	Valuation domain.Valuation
	Wallet    stats.Update
}

// Formatter renders alerts for one token.
type Formatter struct {
	TokenSymbol  string
	PairedSymbol string
	ExplorerURL  string
	Labels       map[common.Address]string
}

func (f Formatter) addressURL(a common.Address) string {
	return strings.TrimRight(f.ExplorerURL, "/") + "/address/" + a.Hex()
}

func (f Formatter) txURL(h common.Hash) string {
	return strings.TrimRight(f.ExplorerURL, "/") + "/tx/" + h.Hex()
}

func (f Formatter) badges(a Alert) string {
	var b strings.Builder
	if a.Wallet.FirstTimeBuyer {
		b.WriteString(" 🆕")
	}
	if a.Wallet.TopHolder {
		b.WriteString(" 👑")
	}
	if label, ok := f.Labels[a.Swap.Trader]; ok {
		b.WriteString(" " + escape(label))
	}
	return b.String()
}

// Trade renders the Markdown body of a swap alert. whale adds the large
// trade banner.
func (f Formatter) Trade(a Alert, whale bool) string {
	s, v := a.Swap, a.Valuation
	symbol := escape(f.TokenSymbol)

	emoji, action := "🛒", "Buy!"
	banner := "🚨🐋"
	if s.Direction == domain.DirectionSell {
		emoji, action = "💸", "Sell!"
		banner = "🚨💸"
	}

	var b strings.Builder
	if whale {
		fmt.Fprintf(&b, "%s WHALE ALERT %s\n\n", banner, banner)
	}
	fmt.Fprintf(&b, "%s $%s %s %s%s\n", emoji, symbol, action, emoji, f.badges(a))
	fmt.Fprintf(&b, "🏪 %s\n\n", escape(s.Venue))

	if v.PairedAmount.Valid {
		_, bar := sizeCategory(v.PairedAmount.Decimal)
		fmt.Fprintf(&b, "%s\n\n", bar)
		fmt.Fprintf(&b, "💵 %s %s (%s)\n", v.PairedAmount.Decimal.StringFixed(3), escape(f.PairedSymbol), usd(v.NotionalUSD))
	} else {
		fmt.Fprintf(&b, "💵 %s\n", usd(v.NotionalUSD))
	}
	fmt.Fprintf(&b, "💰 %s $%s\n", compact(v.TokenAmount), symbol)
	fmt.Fprintf(&b, "👤 [%s](%s) | [Txn](%s)\n", shortAddress(s.Trader), f.addressURL(s.Trader), f.txURL(s.TxHash))
	if a.Wallet.HasHeldPct {
		fmt.Fprintf(&b, "🐟 %s | %.1f%%\n", holderCategory(a.Wallet.HeldPct), a.Wallet.HeldPct)
	}
	if v.UnitPriceUSD.Valid {
		fmt.Fprintf(&b, "💲 Price: $%s\n", v.UnitPriceUSD.Decimal.StringFixed(6))
	} else {
		b.WriteString("💲 Price: n/a\n")
	}
	fmt.Fprintf(&b, "📊 Market Cap: %s", compactUSD(v.MarketCapUSD))
	return b.String()
}

// Category is the whale category used in logs.
func Category(v domain.Valuation) string {
	if !v.PairedAmount.Valid {
		return "unknown"
	}
	label, _ := sizeCategory(v.PairedAmount.Decimal)
	return label
}

// Summary renders the end-of-day report.
func (f Formatter) Summary(d domain.DailyVolumeStats, newBuyers int) string {
	traded := d.BuyVolume.Add(d.SellVolume)
	total := d.BuyUSD.Add(d.SellUSD)

	var b strings.Builder
	fmt.Fprintf(&b, "📅 DAILY SUMMARY - %s\n", d.Date)
	b.WriteString(strings.Repeat("=", 30) + "\n\n")
	fmt.Fprintf(&b, "🟢 BUYS: %d | $%s\n", d.BuyCount, grouped(d.BuyUSD, 2))
	fmt.Fprintf(&b, "🔴 SELLS: %d | $%s\n\n", d.SellCount, grouped(d.SellUSD, 2))
	fmt.Fprintf(&b, "💰 Total Volume: $%s\n", grouped(total, 2))
	fmt.Fprintf(&b, "📊 %s Traded: %s\n", f.TokenSymbol, grouped(traded, 0))
	fmt.Fprintf(&b, "👥 Unique traders: ~%d\n\n", d.UniqueTraders)
	fmt.Fprintf(&b, "🆕 New buyers today: %d", newBuyers)
	return b.String()
}

// Volume renders the /volume reply.
func (f Formatter) Volume(snap stats.Snapshot) string {
	d := snap.Daily
	total := d.BuyUSD.Add(d.SellUSD)

	var b strings.Builder
	b.WriteString("📊 Daily Volume Report\n")
	fmt.Fprintf(&b, "Date: %s\n\n", d.Date)
	b.WriteString("🟢 BUYS:\n")
	fmt.Fprintf(&b, "  • %d transactions\n", d.BuyCount)
	fmt.Fprintf(&b, "  • %s %s ($%s)\n", d.BuyPairedVolume.StringFixed(3), f.PairedSymbol, grouped(d.BuyUSD, 2))
	fmt.Fprintf(&b, "  • %s %s\n\n", grouped(d.BuyVolume, 0), f.TokenSymbol)
	b.WriteString("🔴 SELLS:\n")
	fmt.Fprintf(&b, "  • %d transactions\n", d.SellCount)
	fmt.Fprintf(&b, "  • %s %s ($%s)\n", d.SellPairedVolume.StringFixed(3), f.PairedSymbol, grouped(d.SellUSD, 2))
	fmt.Fprintf(&b, "  • %s %s\n\n", grouped(d.SellVolume, 0), f.TokenSymbol)
	fmt.Fprintf(&b, "💰 Total Volume: $%s\n", grouped(total, 2))
	fmt.Fprintf(&b, "📈 Buy/Sell Ratio: %d:%d", d.BuyCount, d.SellCount)
	return b.String()
}

// Ping renders the /ping reply.
func (f Formatter) Ping(snap stats.Snapshot, minBuy, minSell decimal.Decimal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🤖 Monitoring %s swaps!\n\n", f.TokenSymbol)
	fmt.Fprintf(&b, "👥 Tracked wallets: %d\n", snap.SeenWallets)
	fmt.Fprintf(&b, "🆕 First-time buyers: %d\n", snap.FirstTimeBuyers)
	fmt.Fprintf(&b, "👑 Top holders tracked: %d\n\n", len(snap.TopHolders))
	b.WriteString("📊 Minimums:\n")
	fmt.Fprintf(&b, "  • Buys: ≥%s %s\n", quantity(minBuy), f.TokenSymbol)
	fmt.Fprintf(&b, "  • Sells: ≥%s %s", quantity(minSell), f.TokenSymbol)
	return b.String()
}
