package config

import (
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	ProviderAlphaVantage = "alphavantage"
	ProviderCoinpaprika  = "coinpaprika"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("metrics_db", "METRICS_DB")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("alpha_vantage_api_key", "ALPHA_VANTAGE_API_KEY")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("quote_provider", "QUOTE_PROVIDER")
		viper.BindEnv("quote_base_url", "QUOTE_BASE_URL")
		viper.BindEnv("alerts_file", "ALERTS_FILE")
		viper.BindEnv("sweep_interval", "SWEEP_INTERVAL")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")

		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("metrics_db", "")
		viper.SetDefault("quote_provider", ProviderAlphaVantage)
		viper.SetDefault("quote_base_url", "https://www.alphavantage.co")
		viper.SetDefault("alerts_file", "alerts.json")
		viper.SetDefault("sweep_interval", 30*time.Second)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}

// Validate reports the required settings that are missing or invalid.
// The process must not start when it returns an error.
func Validate() error {
	InitConfig()

	var missing []string
	if viper.GetString("telegram_bot_token") == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}

	switch provider := strings.ToLower(viper.GetString("quote_provider")); provider {
	case ProviderAlphaVantage:
		if viper.GetString("alpha_vantage_api_key") == "" {
			missing = append(missing, "ALPHA_VANTAGE_API_KEY")
		}
	case ProviderCoinpaprika:
	default:
		return errors.Errorf("unknown quote provider %q", provider)
	}

	if len(missing) > 0 {
		return errors.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if viper.GetDuration("sweep_interval") <= 0 {
		return errors.New("SWEEP_INTERVAL must be a positive duration")
	}
	return nil
}
