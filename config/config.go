package config

import (
	"github.com/spf13/viper"
	"sync"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("telegram_channel_id", "TELEGRAM_CHANNEL_ID")
		viper.BindEnv("ticker", "TICKER")
		viper.BindEnv("market_data_url", "MARKET_DATA_URL")
		viper.BindEnv("market_data_token", "MARKET_DATA_TOKEN")
		viper.BindEnv("port", "PORT")
		viper.BindEnv("fallback_port", "FALLBACK_PORT")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("debug", "DEBUG")

		viper.SetDefault("ticker", "SPY")
		viper.SetDefault("market_data_url", "https://api.tradier.com")
		viper.SetDefault("port", 8000)
		viper.SetDefault("fallback_port", 8001)
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("db_path", "data/webhook.db")
		viper.SetDefault("debug", false)
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
