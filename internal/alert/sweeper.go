package alert

import (
	"bytes"
	"context"
	"runtime"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"stock-alert-bot/internal/metrics"
	"stock-alert-bot/internal/price"
	"stock-alert-bot/internal/types"
	"stock-alert-bot/lib/helpers"
	"stock-alert-bot/lib/translation"
)

// Notifier delivers a direct message to the owner of an alert.
type Notifier interface {
	Notify(ownerID, text string) error
}

// Sweeper re-checks every stored alert on a fixed interval.
type Sweeper struct {
	store    *Store
	prices   price.Client
	notifier Notifier
	interval time.Duration
	metrics  *metrics.BotMetrics
}

func NewSweeper(store *Store, prices price.Client, notifier Notifier, interval time.Duration, m *metrics.BotMetrics) *Sweeper {
	return &Sweeper{
		store:    store,
		prices:   prices,
		notifier: notifier,
		interval: interval,
		metrics:  m,
	}
}

// Run sweeps every interval until ctx is cancelled. A slow sweep delays the
// next tick instead of overlapping with it.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.WithField("interval", s.interval).Info("Alert sweeper started.")
	for {
		select {
		case <-ctx.Done():
			log.Info("Alert sweeper stopped.")
			return
		case <-ticker.C:
			s.safeSweep(ctx)
		}
	}
}

func (s *Sweeper) safeSweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			log.Errorf("Recovered from panic in alert sweep: %v\nStack trace: %s", r, bytes.TrimRight(stackBuf[:stackSize], "\x00"))
		}
	}()
	s.Sweep(ctx)
}

// Sweep evaluates every alert once and returns how many fired.
func (s *Sweeper) Sweep(ctx context.Context) int {
	alerts := s.store.All()
	log.Debugf("Checking %d alerts...", len(alerts))

	prices := make(map[string]decimal.Decimal)
	failed := make(map[string]bool)
	triggered := 0

	for _, a := range alerts {
		if ctx.Err() != nil {
			break
		}
		if failed[a.Symbol] {
			continue
		}

		current, ok := prices[a.Symbol]
		if !ok {
			p, err := s.prices.Price(ctx, a.Symbol)
			if err != nil {
				s.metrics.QuoteFailures.Inc()
				log.WithError(err).WithField("symbol", a.Symbol).Error("Failed to fetch price for alert")
				failed[a.Symbol] = true
				continue
			}
			prices[a.Symbol] = p
			current = p
		}

		entry := log.WithFields(log.Fields{
			"owner":     a.OwnerID,
			"symbol":    a.Symbol,
			"condition": a.Direction,
			"threshold": a.Threshold.String(),
			"price":     current.String(),
		})
		entry.Debug("Checking price alert")

		if !a.Triggered(current) {
			continue
		}

		// the owner may have removed or replaced the alert since the snapshot
		if !s.store.RemoveIfUnchanged(a) {
			entry.Debug("Alert changed during sweep, skipping")
			continue
		}
		triggered++
		s.metrics.AlertsTriggered.Inc()

		if err := s.notifier.Notify(a.OwnerID, notification(a, current)); err != nil {
			entry.WithError(err).Error("Failed to send price alert notification")
		} else {
			entry.Info("Price alert notification sent")
		}
	}

	s.metrics.ActiveAlerts.Set(float64(s.store.Count()))
	log.Debugf("Alert check completed, %d triggered.", triggered)
	return triggered
}

func notification(a types.Alert, current decimal.Decimal) string {
	return translation.Translate(
		"Price alert: %s is now $%s, %s your target of $%s.",
		a.Symbol,
		helpers.FormatPriceUS(current),
		directionWord(a.Direction),
		a.Threshold.String(),
	)
}

func directionWord(d types.Direction) string {
	if d == types.Below {
		return translation.Translate("below")
	}
	return translation.Translate("above")
}
