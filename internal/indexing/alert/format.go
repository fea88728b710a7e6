package alert

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
)

// compact renders 1234 as 1.2K and 1234567 as 1.23M.
func compact(d decimal.Decimal) string {
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(million):
		return d.Div(million).StringFixed(2) + "M"
	case abs.GreaterThanOrEqual(thousand):
		return d.Div(thousand).StringFixed(1) + "K"
	default:
		return d.StringFixed(1)
	}
}

// usd renders $1,234.56, or n/a when the value is unknown.
func usd(d decimal.NullDecimal) string {
	if !d.Valid {
		return "n/a"
	}
	return "$" + grouped(d.Decimal, 2)
}

func compactUSD(d decimal.NullDecimal) string {
	if !d.Valid {
		return "n/a"
	}
	return "$" + compact(d.Decimal)
}

// grouped formats with thousands separators.
func grouped(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}

func quantity(d decimal.Decimal) string {
	if d.IsInteger() {
		return grouped(d, 0)
	}
	return d.String()
}

// shortAddress renders 0x1234...abcd.
func shortAddress(a common.Address) string {
	h := a.Hex()
	return h[:6] + "..." + h[len(h)-4:]
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// escape makes user-supplied text safe inside legacy Markdown.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

var markupStripper = strings.NewReplacer(`\_`, "_", `\*`, "*", "\\`", "`", `\[`, "[", "](", " (", "[", "", "]", "")

// stripMarkup turns a Markdown message into readable plain text: link
// brackets are dropped and the URL is kept in parentheses.
func stripMarkup(s string) string {
	return markupStripper.Replace(s)
}
