/**
 * @description
 * Configuration management for the ledger-service, using Viper to read environment
 * variables (with an optional .env file). Tier limits live here so every component
 * reads the daily-limit table from one configurable source of truth.
 *
 * @dependencies
 * - github.com/spf13/viper: application configuration.
 */

package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the ledger-service, loaded from environment
// variables. Amount values are int64 kobo.
type Config struct {
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	SnapshotPath         string `mapstructure:"SNAPSHOT_PATH"`
	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`
	EventExchange        string `mapstructure:"TRANSACTION_EVENT_EXCHANGE"`
	RedisURL             string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`

	TransferRateLimitPerMinute int `mapstructure:"TRANSFER_RATE_LIMIT_PER_MINUTE"`
	CommitRetryAttempts        int `mapstructure:"COMMIT_RETRY_ATTEMPTS"`

	Tier1DailyLimitKobo int64 `mapstructure:"TIER1_DAILY_LIMIT_KOBO"`
	Tier2DailyLimitKobo int64 `mapstructure:"TIER2_DAILY_LIMIT_KOBO"`
	Tier3DailyLimitKobo int64 `mapstructure:"TIER3_DAILY_LIMIT_KOBO"`

	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogEncoding string `mapstructure:"LOG_ENCODING"`
}

// LoadConfig reads configuration from environment variables, with an optional .env
// file at the given path taking lower precedence.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SNAPSHOT_PATH", "ledger_data.json")
	viper.SetDefault("TRANSACTION_EVENT_EXCHANGE", "ledger.events")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "ledger:rate_limit")
	viper.SetDefault("TRANSFER_RATE_LIMIT_PER_MINUTE", 0) // disabled unless configured
	viper.SetDefault("COMMIT_RETRY_ATTEMPTS", 5)
	viper.SetDefault("TIER1_DAILY_LIMIT_KOBO", 5_000_000)
	viper.SetDefault("TIER2_DAILY_LIMIT_KOBO", 20_000_000)
	viper.SetDefault("TIER3_DAILY_LIMIT_KOBO", 500_000_000)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_ENCODING", "json")

	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("SNAPSHOT_PATH")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("TRANSACTION_EVENT_EXCHANGE")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("TRANSFER_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("COMMIT_RETRY_ATTEMPTS")
	_ = viper.BindEnv("TIER1_DAILY_LIMIT_KOBO")
	_ = viper.BindEnv("TIER2_DAILY_LIMIT_KOBO")
	_ = viper.BindEnv("TIER3_DAILY_LIMIT_KOBO")
	_ = viper.BindEnv("LOG_LEVEL")
	_ = viper.BindEnv("LOG_ENCODING")

	// A missing or unreadable .env file is fine; the environment is the primary source.
	_ = viper.ReadInConfig()

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	config.DatabaseURL = strings.TrimSpace(config.DatabaseURL)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	if config.CommitRetryAttempts <= 0 {
		config.CommitRetryAttempts = 5
	}
	if config.Tier1DailyLimitKobo <= 0 {
		config.Tier1DailyLimitKobo = 5_000_000
	}
	if config.Tier2DailyLimitKobo <= 0 {
		config.Tier2DailyLimitKobo = 20_000_000
	}
	if config.Tier3DailyLimitKobo <= 0 {
		config.Tier3DailyLimitKobo = 500_000_000
	}
	if config.TransferRateLimitPerMinute < 0 {
		config.TransferRateLimitPerMinute = 0
	}
	if strings.TrimSpace(config.RedisRateLimitPrefix) == "" {
		config.RedisRateLimitPrefix = "ledger:rate_limit"
	}

	return
}
