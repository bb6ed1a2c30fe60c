package price

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const globalQuoteKey = "Global Quote"

// keys the API uses for error payloads instead of a quote
var apiMessageKeys = []string{"Error Message", "Note", "Information"}

// AlphaVantage reads GLOBAL_QUOTE from the Alpha Vantage query endpoint.
type AlphaVantage struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewAlphaVantage(baseURL, apiKey string, httpClient *http.Client) *AlphaVantage {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &AlphaVantage{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *AlphaVantage) Quote(ctx context.Context, symbol string) (*Quote, error) {
	query := url.Values{}
	query.Set("function", "GLOBAL_QUOTE")
	query.Set("symbol", symbol)
	query.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not build quote request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "quote request for %s failed", symbol)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("quote request for %s returned status %d", symbol, resp.StatusCode)
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrapf(err, "could not decode quote response for %s", symbol)
	}
	log.Debugf("quote payload for %s: %s", symbol, spew.Sdump(payload))

	for _, key := range apiMessageKeys {
		if raw, ok := payload[key]; ok {
			return nil, errors.Wrapf(ErrQuoteNotFound, "%s: %s", symbol, strings.Trim(string(raw), `"`))
		}
	}

	raw, ok := payload[globalQuoteKey]
	if !ok {
		return nil, errors.Wrap(ErrQuoteNotFound, symbol)
	}

	var fields map[string]string
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrapf(ErrMalformedQuote, "%s: %v", symbol, err)
	}
	// unknown symbols come back as an empty object
	if len(fields) == 0 {
		return nil, errors.Wrap(ErrQuoteNotFound, symbol)
	}

	price, err := parseDecimal("price", fields["05. price"])
	if err != nil {
		return nil, errors.WithMessage(err, symbol)
	}
	change, err := parseDecimal("change", fields["09. change"])
	if err != nil {
		return nil, errors.WithMessage(err, symbol)
	}
	changePercent, err := parseDecimal("change percent", fields["10. change percent"])
	if err != nil {
		return nil, errors.WithMessage(err, symbol)
	}

	return &Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
	}, nil
}

func (c *AlphaVantage) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	q, err := c.Quote(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Price, nil
}
