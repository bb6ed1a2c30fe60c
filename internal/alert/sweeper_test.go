package alert

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-alert-bot/internal/metrics"
	"stock-alert-bot/internal/price"
	"stock-alert-bot/internal/types"
)

type fakePrices struct {
	mu     sync.Mutex
	prices map[string]string
	calls  map[string]int
	before func(symbol string)
}

func (f *fakePrices) Quote(ctx context.Context, symbol string) (*price.Quote, error) {
	p, err := f.Price(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &price.Quote{Symbol: symbol, Price: p}, nil
}

func (f *fakePrices) Price(_ context.Context, symbol string) (decimal.Decimal, error) {
	if f.before != nil {
		f.before(symbol)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[symbol]++

	p, ok := f.prices[symbol]
	if !ok {
		return decimal.Zero, errors.Wrap(price.ErrQuoteNotFound, symbol)
	}
	return decimal.RequireFromString(p), nil
}

type notice struct {
	owner string
	text  string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notice
	err  error
}

func (f *fakeNotifier) Notify(ownerID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notice{owner: ownerID, text: text})
	return f.err
}

func newTestSweeper(t *testing.T, prices *fakePrices) (*Sweeper, *Store, *fakeNotifier, *metrics.BotMetrics) {
	t.Helper()

	s, _ := newTestStore(t)
	n := &fakeNotifier{}
	m := metrics.New(prometheus.NewRegistry())
	return NewSweeper(s, prices, n, time.Minute, m), s, n, m
}

func TestSweepTriggersAbove(t *testing.T) {
	sweeper, store, notifier, m := newTestSweeper(t, &fakePrices{prices: map[string]string{"AAPL": "151"}})
	require.NoError(t, store.Add(newAlert("7", "AAPL", types.Above, "150")))

	assert.Equal(t, 1, sweeper.Sweep(context.Background()))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "7", notifier.sent[0].owner)
	assert.Contains(t, notifier.sent[0].text, "AAPL")
	assert.Contains(t, notifier.sent[0].text, "151.00")
	assert.Contains(t, notifier.sent[0].text, "above")
	assert.Contains(t, notifier.sent[0].text, "$150")
	assert.Empty(t, store.List("7"))
	assert.Equal(t, 1.0, metrics.GetMetricValue(m.AlertsTriggered))

	assert.Zero(t, sweeper.Sweep(context.Background()))
	assert.Len(t, notifier.sent, 1)
}

func TestSweepBoundaryIsInclusive(t *testing.T) {
	prices := &fakePrices{prices: map[string]string{"AAPL": "150", "MSFT": "300.10"}}
	sweeper, store, notifier, _ := newTestSweeper(t, prices)
	require.NoError(t, store.Add(newAlert("1", "AAPL", types.Above, "150.00")))
	require.NoError(t, store.Add(newAlert("2", "MSFT", types.Below, "300.1")))

	assert.Equal(t, 2, sweeper.Sweep(context.Background()))
	assert.Len(t, notifier.sent, 2)
	assert.Zero(t, store.Count())
}

func TestSweepNotTriggered(t *testing.T) {
	sweeper, store, notifier, _ := newTestSweeper(t, &fakePrices{prices: map[string]string{"AAPL": "149.99"}})
	require.NoError(t, store.Add(newAlert("1", "AAPL", types.Above, "150")))
	require.NoError(t, store.Add(newAlert("2", "AAPL", types.Below, "100")))

	assert.Zero(t, sweeper.Sweep(context.Background()))
	assert.Empty(t, notifier.sent)
	assert.Equal(t, 2, store.Count())
}

func TestSweepContinuesAfterFetchFailure(t *testing.T) {
	prices := &fakePrices{prices: map[string]string{"MSFT": "10"}}
	sweeper, store, notifier, m := newTestSweeper(t, prices)
	require.NoError(t, store.Add(newAlert("1", "AAPL", types.Above, "1")))
	require.NoError(t, store.Add(newAlert("2", "AAPL", types.Above, "1")))
	require.NoError(t, store.Add(newAlert("3", "MSFT", types.Below, "20")))

	assert.Equal(t, 1, sweeper.Sweep(context.Background()))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "3", notifier.sent[0].owner)
	assert.Equal(t, 2, store.Count())
	assert.Equal(t, 1, prices.calls["AAPL"], "a failed symbol is fetched once per tick")
	assert.Equal(t, 1.0, metrics.GetMetricValue(m.QuoteFailures))
}

func TestSweepFetchesEachSymbolOnce(t *testing.T) {
	prices := &fakePrices{prices: map[string]string{"AAPL": "200"}}
	sweeper, store, notifier, _ := newTestSweeper(t, prices)
	for _, owner := range []string{"1", "2", "3"} {
		require.NoError(t, store.Add(newAlert(owner, "AAPL", types.Above, "150")))
	}

	assert.Equal(t, 3, sweeper.Sweep(context.Background()))
	assert.Len(t, notifier.sent, 3)
	assert.Equal(t, 1, prices.calls["AAPL"])
}

func TestSweepNotificationFailureStillDeletes(t *testing.T) {
	sweeper, store, notifier, _ := newTestSweeper(t, &fakePrices{prices: map[string]string{"AAPL": "200"}})
	notifier.err = errors.New("chat unreachable")
	require.NoError(t, store.Add(newAlert("1", "AAPL", types.Above, "150")))

	assert.Equal(t, 1, sweeper.Sweep(context.Background()))
	assert.Zero(t, store.Count())
}

func TestSweepSkipsAlertChangedDuringTick(t *testing.T) {
	prices := &fakePrices{prices: map[string]string{"AAPL": "200", "MSFT": "1"}}
	sweeper, store, notifier, _ := newTestSweeper(t, prices)
	require.NoError(t, store.Add(newAlert("1", "AAPL", types.Above, "150")))
	require.NoError(t, store.Add(newAlert("2", "MSFT", types.Below, "5")))

	// the owners act while the price request is in flight
	prices.before = func(symbol string) {
		switch symbol {
		case "AAPL":
			require.NoError(t, store.Add(newAlert("1", "AAPL", types.Above, "500")))
		case "MSFT":
			store.Remove("2", "MSFT")
		}
	}

	assert.Zero(t, sweeper.Sweep(context.Background()))
	assert.Empty(t, notifier.sent)

	alerts := store.List("1")
	require.Len(t, alerts, 1)
	assert.Equal(t, "500", alerts[0].Threshold.String())
	assert.Empty(t, store.List("2"))
}

func TestRunStopsOnCancel(t *testing.T) {
	prices := &fakePrices{prices: map[string]string{"AAPL": "200"}}
	s, _ := newTestStore(t)
	notifier := &fakeNotifier{}
	sweeper := NewSweeper(s, prices, notifier, 10*time.Millisecond, metrics.New(prometheus.NewRegistry()))
	require.NoError(t, s.Add(newAlert("1", "AAPL", types.Above, "150")))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return s.Count() == 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
	assert.Len(t, notifier.sent, 1)
}
