package price

import (
	"context"
	"net/http"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var hundred = decimal.NewFromInt(100)

// Coinpaprika resolves symbols through the coinpaprika search API and
// reports the USD ticker.
type Coinpaprika struct {
	client *coinpaprika.Client
}

func NewCoinpaprika(apiProKey string, httpClient *http.Client) *Coinpaprika {
	if apiProKey != "" {
		return &Coinpaprika{client: coinpaprika.NewClient(httpClient, coinpaprika.WithAPIKey(apiProKey))}
	}
	return &Coinpaprika{client: coinpaprika.NewClient(httpClient)}
}

func (c *Coinpaprika) Quote(ctx context.Context, symbol string) (*Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := c.client.Search.Search(&coinpaprika.SearchOptions{
		Query:      symbol,
		Categories: "currencies",
		Modifier:   "symbol_search",
	})
	if err != nil {
		return nil, errors.Wrapf(err, "coin search for %s failed", symbol)
	}
	if len(result.Currencies) == 0 || result.Currencies[0].ID == nil {
		return nil, errors.Wrap(ErrQuoteNotFound, symbol)
	}

	coinID := *result.Currencies[0].ID
	log.Debugf("best match for symbol '%s' is: %s", symbol, coinID)

	ticker, err := c.client.Tickers.GetByID(coinID, &coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil {
		return nil, errors.Wrapf(err, "ticker lookup for %s failed", coinID)
	}

	usd, ok := ticker.Quotes["USD"]
	if !ok || usd.Price == nil {
		return nil, errors.Wrap(ErrQuoteNotFound, symbol)
	}

	price := decimal.NewFromFloat(*usd.Price)
	changePercent := decimal.Zero
	change := decimal.Zero
	if usd.PercentChange24h != nil {
		changePercent = decimal.NewFromFloat(*usd.PercentChange24h)
		// price 24h ago = price / (1 + pct/100)
		if ratio := decimal.NewFromInt(1).Add(changePercent.Div(hundred)); !ratio.IsZero() {
			change = price.Sub(price.Div(ratio)).Round(8)
		}
	}

	return &Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
	}, nil
}

func (c *Coinpaprika) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q, err := c.Quote(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Price, nil
}
