package commands

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"stock-alert-bot/internal/alert"
	"stock-alert-bot/internal/metrics"
	"stock-alert-bot/internal/price"
)

// Request is a chat message as seen by the router.
type Request struct {
	OwnerID string
	Text    string
	FromBot bool
}

// Router turns chat messages into replies.
type Router struct {
	prices  price.Client
	store   *alert.Store
	metrics *metrics.BotMetrics
}

func NewRouter(prices price.Client, store *alert.Store, m *metrics.BotMetrics) *Router {
	return &Router{
		prices:  prices,
		store:   store,
		metrics: m,
	}
}

// Handle returns the reply for req. The second result is false when the
// message is not a bot command and nothing should be sent.
func (r *Router) Handle(ctx context.Context, req Request) (string, bool) {
	if req.FromBot {
		return "", false
	}

	// matching whole tokens keeps "!stockfoo" from matching "!stock"
	fields := strings.Fields(req.Text)
	if len(fields) == 0 {
		return "", false
	}

	var command, reply string
	switch fields[0] {
	case "!help":
		command, reply = "help", CommandHelp()
	case "!stock":
		command, reply = "stock", r.CommandStock(ctx, fields[1:])
	case "!alert":
		command, reply = r.CommandAlert(req.OwnerID, fields[1:])
	default:
		return "", false
	}

	log.Debugf("processed command %s for %s", command, req.OwnerID)
	r.metrics.CommandsProcessed.WithLabelValues(command).Inc()
	return reply, true
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
