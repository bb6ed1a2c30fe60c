package commands

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"stock-alert-bot/internal/price"
	"stock-alert-bot/lib/helpers"
	"stock-alert-bot/lib/translation"
)

func (r *Router) CommandStock(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return translation.Translate("Please provide a stock symbol. Example: !stock AAPL")
	}
	symbol := normalizeSymbol(args[0])

	q, err := r.prices.Quote(ctx, symbol)
	if err != nil {
		r.metrics.QuoteFailures.Inc()
		log.WithError(err).WithField("symbol", symbol).Error("command !stock failed")
		if errors.Is(err, price.ErrQuoteNotFound) {
			return translation.Translate("Could not find data for symbol: %s", symbol)
		}
		return translation.Translate("An error occurred while fetching stock data. Please try again later.")
	}

	return translation.Translate("%s\nPrice: $%s\nChange: %s (%s%%)",
		q.Symbol,
		helpers.FormatPriceUS(q.Price),
		helpers.FormatSigned(q.Change, 2),
		helpers.FormatSigned(q.ChangePercent, 2),
	)
}
