package metrics

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"

	"stock-alert-bot/internal/database"
)

const (
	namespace = "stockbot"
	subsystem = "telegram_bot"
)

type BotMetrics struct {
	CommandsProcessed *prometheus.CounterVec
	MessagesHandled   prometheus.Counter
	QuoteFailures     prometheus.Counter
	AlertsTriggered   prometheus.Counter
	ActiveAlerts      prometheus.Gauge
	ChannelsCount     prometheus.Gauge
	ChannelNames      *prometheus.CounterVec
	ChannelsSet       map[int64]string
	Mutex             sync.Mutex
}

func New(reg prometheus.Registerer) *BotMetrics {
	metrics := &BotMetrics{
		CommandsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "commands_processed",
				Help:      "The total number of processed commands",
			},
			[]string{"command"},
		),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		QuoteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "quote_failures",
			Help:      "The total number of failed quote lookups",
		}),
		AlertsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "alerts_triggered",
			Help:      "The total number of price alerts that fired",
		}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_alerts",
			Help:      "The current number of stored price alerts",
		}),
		ChannelsCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "channels_count",
			Help:      "The current number of unique chats the bot is operating in",
		}),
		ChannelNames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "channel_names",
				Help:      "Tracks chats the bot has interacted with",
			},
			[]string{"chat_id", "chat_name"},
		),
		ChannelsSet: make(map[int64]string),
	}

	reg.MustRegister(
		metrics.CommandsProcessed,
		metrics.MessagesHandled,
		metrics.QuoteFailures,
		metrics.AlertsTriggered,
		metrics.ActiveAlerts,
		metrics.ChannelsCount,
		metrics.ChannelNames,
	)

	return metrics
}

// TrackChannel records a chat the first time the bot sees it.
func (m *BotMetrics) TrackChannel(chatID int64, chatName string) {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()

	if _, exists := m.ChannelsSet[chatID]; !exists {
		m.ChannelsSet[chatID] = chatName
		m.ChannelsCount.Set(float64(len(m.ChannelsSet)))

		m.ChannelNames.WithLabelValues(fmt.Sprintf("%d", chatID), chatName).Inc()
	}
}

// Load restores counters saved by a previous run.
func (m *BotMetrics) Load(db *database.DB) {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()

	messagesHandled, err := db.GetMetric("messages_handled")
	logLoadError("messages_handled", err)
	quoteFailures, err := db.GetMetric("quote_failures")
	logLoadError("quote_failures", err)
	alertsTriggered, err := db.GetMetric("alerts_triggered")
	logLoadError("alerts_triggered", err)

	m.MessagesHandled.Add(messagesHandled)
	m.QuoteFailures.Add(quoteFailures)
	m.AlertsTriggered.Add(alertsTriggered)

	loadLabeledMetrics(db, "commands_processed", func(_, command string, value float64) {
		m.CommandsProcessed.WithLabelValues(command).Add(value)
	})

	loadLabeledMetrics(db, "channel_names", func(chatIDStr, chatName string, _ float64) {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			log.Errorf("Failed to parse chatID %s: %v", chatIDStr, err)
			return
		}
		m.ChannelNames.WithLabelValues(chatIDStr, chatName).Add(1)
		m.ChannelsSet[chatID] = chatName
	})
	m.ChannelsCount.Set(float64(len(m.ChannelsSet)))

	log.Info("Metrics loaded from database.")
}

// Save writes the current counter values.
func (m *BotMetrics) Save(db *database.DB) {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()

	logSaveError(db.SaveMetric("messages_handled", GetMetricValue(m.MessagesHandled)))
	logSaveError(db.SaveMetric("quote_failures", GetMetricValue(m.QuoteFailures)))
	logSaveError(db.SaveMetric("alerts_triggered", GetMetricValue(m.AlertsTriggered)))

	for chatID, chatName := range m.ChannelsSet {
		logSaveError(db.SaveMetricWithLabels("channel_names", fmt.Sprintf("%d", chatID), chatName, float64(chatID)))
	}

	for _, metric := range collect(m.CommandsProcessed) {
		var command string
		for _, label := range metric.Label {
			if label.GetName() == "command" {
				command = label.GetValue()
			}
		}
		logSaveError(db.SaveMetricWithLabels("commands_processed", "command", command, metric.Counter.GetValue()))
	}

	log.Info("Metrics saved to database.")
}

// GetMetricValue reads the value of a single counter or gauge.
func GetMetricValue(metric prometheus.Collector) float64 {
	metrics := collect(metric)
	if len(metrics) == 0 {
		return 0
	}

	metricProto := metrics[0]
	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		return metricProto.Gauge.GetValue()
	}
	return 0
}

func collect(collector prometheus.Collector) []*dto.Metric {
	metricChan := make(chan prometheus.Metric)
	go func() {
		collector.Collect(metricChan)
		close(metricChan)
	}()

	var out []*dto.Metric
	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Errorf("Failed to read metric value: %v", err)
			continue
		}
		out = append(out, metricProto)
	}
	return out
}

func loadLabeledMetrics(db *database.DB, metricName string, callback func(labelKey, labelValue string, value float64)) {
	metricsWithLabels, err := db.GetMetricsWithLabels(metricName)
	logLoadError(metricName, err)
	for labelKey, labelValues := range metricsWithLabels {
		for labelValue, value := range labelValues {
			callback(labelKey, labelValue, value)
		}
	}
}

func logLoadError(metricName string, err error) {
	if err != nil {
		log.Errorf("Failed to load metric %s: %v", metricName, err)
	}
}

func logSaveError(err error) {
	if err != nil {
		log.Errorf("Failed to save metric: %v", err)
	}
}
