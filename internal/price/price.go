package price

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrQuoteNotFound is returned when the provider has no quote for a symbol.
	ErrQuoteNotFound = errors.New("quote not found")
	// ErrMalformedQuote is returned when a quote is present but not numeric.
	ErrMalformedQuote = errors.New("malformed quote")
)

// Quote is a single lookup result. It is never persisted.
type Quote struct {
	Symbol        string
	Price         decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
}

// Client fetches quotes from a market-data provider.
type Client interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "%"))
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrMalformedQuote, "%s %q", field, value)
	}
	return d, nil
}
