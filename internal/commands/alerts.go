package commands

import (
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"stock-alert-bot/internal/types"
	"stock-alert-bot/lib/helpers"
	"stock-alert-bot/lib/translation"
)

func alertUsage() string {
	return translation.Translate("Usage:\n" +
		"!alert add <symbol> <>|<> <price>, e.g. !alert add AAPL > 200\n" +
		"!alert remove <symbol>\n" +
		"!alert list")
}

// CommandAlert dispatches the !alert subcommands and returns the metric
// label of the subcommand with the reply.
func (r *Router) CommandAlert(ownerID string, args []string) (string, string) {
	if len(args) == 0 {
		return "alert", alertUsage()
	}

	switch args[0] {
	case "add":
		return "alert_add", r.commandAlertAdd(ownerID, args[1:])
	case "remove":
		return "alert_remove", r.commandAlertRemove(ownerID, args[1:])
	case "list":
		return "alert_list", r.commandAlertList(ownerID)
	}
	return "alert", alertUsage()
}

func (r *Router) commandAlertAdd(ownerID string, args []string) string {
	if len(args) != 3 {
		return alertUsage()
	}

	direction, ok := types.ParseDirection(args[1])
	if !ok {
		return alertUsage()
	}
	threshold, err := decimal.NewFromString(args[2])
	if err != nil {
		return alertUsage()
	}

	a := types.Alert{
		OwnerID:   ownerID,
		Symbol:    normalizeSymbol(args[0]),
		Threshold: threshold,
		Direction: direction,
	}
	if err := r.store.Add(a); err != nil {
		log.WithError(err).Error("command !alert add failed")
		return alertUsage()
	}
	r.metrics.ActiveAlerts.Set(float64(r.store.Count()))

	return translation.Translate("Alert set: %s %s %s", a.Symbol, a.Direction, a.Threshold.String())
}

func (r *Router) commandAlertRemove(ownerID string, args []string) string {
	if len(args) == 0 {
		return alertUsage()
	}
	symbol := normalizeSymbol(args[0])

	if !r.store.Remove(ownerID, symbol) {
		return translation.Translate("No alert found for %s.", symbol)
	}
	r.metrics.ActiveAlerts.Set(float64(r.store.Count()))

	return translation.Translate("Alert for %s removed.", symbol)
}

func (r *Router) commandAlertList(ownerID string) string {
	alerts := r.store.List(ownerID)
	if len(alerts) == 0 {
		return translation.Translate("You have no active alerts.")
	}

	var alertList strings.Builder
	alertList.WriteString(translation.Translate("Your active alerts:"))
	for _, a := range alerts {
		alertList.WriteString("\n")
		alertList.WriteString(translation.Translate("%s: %s %s (set %s)",
			a.Symbol,
			a.Direction,
			a.Threshold.String(),
			helpers.FormatAge(a.CreatedAt),
		))
	}
	return alertList.String()
}
