package helpers

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatPriceUS prints a price with thousands separators and a precision
// that depends on its magnitude.
func FormatPriceUS(price decimal.Decimal) string {
	decimals := 6

	abs := price.Abs()
	if abs.GreaterThan(decimal.RequireFromString("1.2")) {
		decimals = 2
	} else if abs.LessThan(decimal.RequireFromString("0.00001")) && !abs.IsZero() {
		decimals = 8
	}

	p := message.NewPrinter(language.English)
	return p.Sprintf("%.*f", decimals, price.Round(int32(decimals)).InexactFloat64())
}

// FormatSigned prints d with a fixed number of places and an explicit sign.
func FormatSigned(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	if d.Round(places).IsPositive() {
		return "+" + s
	}
	return s
}

// FormatAge prints how long ago t was, e.g. "3 minutes ago".
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "a while ago"
	}
	return humanize.Time(t)
}
