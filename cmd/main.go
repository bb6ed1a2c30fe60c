package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"stock-alert-bot/config"
	"stock-alert-bot/internal/alert"
	"stock-alert-bot/internal/commands"
	"stock-alert-bot/internal/database"
	"stock-alert-bot/internal/metrics"
	"stock-alert-bot/internal/price"
	"stock-alert-bot/internal/telegram"
	"stock-alert-bot/lib/translation"
)

func init() {
	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()
	config.InitConfig()
	setupLogging()
}

func main() {
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	configureTranslation("locales")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := alert.LoadStore(config.GetString("alerts_file"))
	if err != nil {
		log.Fatalf("Failed to load alerts: %v", err)
	}

	botMetrics := metrics.New(prometheus.DefaultRegisterer)
	botMetrics.ActiveAlerts.Set(float64(store.Count()))

	var db *database.DB
	if path := config.GetString("metrics_db"); path != "" {
		db, err = database.Open(path)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		botMetrics.Load(db)
	}

	prices := newPriceClient()

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          config.GetString("telegram_bot_token"),
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: 60,
	})
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	log.Infof("Logged in as %s, replying in %s", bot.UserName(), translation.GetLanguage())

	router := commands.NewRouter(prices, store, botMetrics)
	sweeper := alert.NewSweeper(store, prices, bot, config.GetDuration("sweep_interval"), botMetrics)
	go sweeper.Run(ctx)

	go handleUpdates(ctx, bot, router, botMetrics, bot.GetUpdatesChannel())

	if db != nil {
		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					botMetrics.Save(db)
				}
			}
		}()
	}

	server := newMetricsAndHealthServer(config.GetInt("metrics_port"))
	go func() {
		log.Infof("Launching metrics and health endpoint on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start metrics and health server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	bot.StopReceivingUpdates()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Failed to stop metrics server: %v", err)
	}
	if err := store.Persist(); err != nil {
		log.Errorf("Failed to persist alerts: %v", err)
	}
	if db != nil {
		botMetrics.Save(db)
	}
}

func setupLogging() {
	log.SetLevel(log.ErrorLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting stock alert bot...")
}

// configureTranslation loads the reply catalogue for LANG from dir.
func configureTranslation(dir string) {
	translation.Configure(dir, config.GetString("lang"))
}

func newPriceClient() price.Client {
	httpClient := &http.Client{}
	if strings.ToLower(config.GetString("quote_provider")) == config.ProviderCoinpaprika {
		return price.NewCoinpaprika(config.GetString("api_pro_key"), httpClient)
	}
	return price.NewAlphaVantage(
		config.GetString("quote_base_url"),
		config.GetString("alpha_vantage_api_key"),
		httpClient,
	)
}

func handleUpdates(ctx context.Context, bot *telegram.Bot, router *commands.Router, m *metrics.BotMetrics, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.Message == nil || update.Message.From == nil {
			log.Debug("Received non-message update")
			continue
		}

		m.MessagesHandled.Inc()
		m.TrackChannel(update.Message.Chat.ID, telegram.ChatName(update.Message.Chat))

		// one goroutine per message so a slow quote lookup never blocks polling
		go handleCommand(ctx, bot, router, update.Message)
	}
}

func handleCommand(ctx context.Context, bot *telegram.Bot, router *commands.Router, message *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	reply, ok := router.Handle(ctx, telegram.NewRequest(message))
	if !ok {
		return
	}

	err := bot.SendMessage(telegram.Message{
		ChatID:    message.Chat.ID,
		Text:      reply,
		MessageID: message.MessageID,
	})
	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func newMetricsAndHealthServer(port int) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
}
