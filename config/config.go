package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration (slot-hold store).
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisHoldDB   int    `mapstructure:"REDIS_HOLD_DB"`

	// Calendar provider configuration.
	CalendarID         string `mapstructure:"CALENDAR_ID"`
	FreeBusyTimeoutSec int    `mapstructure:"FREEBUSY_TIMEOUT_SEC"`
	BookingTimeoutSec  int    `mapstructure:"BOOKING_TIMEOUT_SEC"`

	// Scheduling defaults applied when a request omits tuning parameters.
	WorkdayStart    string `mapstructure:"WORKDAY_START"` // e.g., "09:00"
	WorkdayEnd      string `mapstructure:"WORKDAY_END"`   // e.g., "18:00"
	SlotDurationMin int    `mapstructure:"SLOT_DURATION_MIN"`
	SlotStrideMin   int    `mapstructure:"SLOT_STRIDE_MIN"`

	// Advisory slot holds.
	HoldTTLMin int `mapstructure:"HOLD_TTL_MIN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_HOLD_DB", 0)
	viper.SetDefault("CALENDAR_ID", "primary")
	viper.SetDefault("FREEBUSY_TIMEOUT_SEC", 10)
	viper.SetDefault("BOOKING_TIMEOUT_SEC", 15)
	viper.SetDefault("WORKDAY_START", "09:00")
	viper.SetDefault("WORKDAY_END", "18:00")
	viper.SetDefault("SLOT_DURATION_MIN", 30)
	viper.SetDefault("SLOT_STRIDE_MIN", 30)
	viper.SetDefault("HOLD_TTL_MIN", 5)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
