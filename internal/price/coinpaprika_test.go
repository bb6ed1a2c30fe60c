package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redirectTransport sends every request to the test server.
type redirectTransport struct {
	target *url.URL
}

func (rt redirectTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = rt.target.Scheme
	r.URL.Host = rt.target.Host
	r.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(r)
}

func newCoinpaprikaServer(t *testing.T, search, ticker string) *http.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "search"):
			w.Write([]byte(search))
		case strings.Contains(r.URL.Path, "tickers"):
			w.Write([]byte(ticker))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return &http.Client{Transport: redirectTransport{target: target}}
}

func TestCoinpaprikaQuote(t *testing.T) {
	httpClient := newCoinpaprikaServer(t,
		`{"currencies": [{"id": "btc-bitcoin", "name": "Bitcoin", "symbol": "BTC"}]}`,
		`{"id": "btc-bitcoin", "name": "Bitcoin", "symbol": "BTC", "quotes": {"USD": {"price": 50000, "percent_change_24h": 25}}}`,
	)

	q, err := NewCoinpaprika("", httpClient).Quote(context.Background(), "BTC")
	require.NoError(t, err)

	assert.Equal(t, "50000", q.Price.String())
	assert.Equal(t, "25", q.ChangePercent.String())
	assert.Equal(t, "10000", q.Change.String())
}

func TestCoinpaprikaUnknownSymbol(t *testing.T) {
	httpClient := newCoinpaprikaServer(t, `{"currencies": []}`, `{}`)

	_, err := NewCoinpaprika("", httpClient).Price(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQuoteNotFound))
}
