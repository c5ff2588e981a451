package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	RedisAddr   string
	KafkaBroker string

	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	JWTSecret string

	OutboxPollInterval time.Duration
}

// Load reads configuration from environment variables, with an optional
// .env file for local development. Environment always wins.
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "")
	viper.SetDefault("DB_NAME", "bizops")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("KAFKA_BROKER", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("READ_TIMEOUT", "10s")
	viper.SetDefault("WRITE_TIMEOUT", "10s")
	viper.SetDefault("IDLE_TIMEOUT", "60s")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("OUTBOX_POLL_INTERVAL", "3s")

	viper.AutomaticEnv()

	cfg := &Config{
		DBHost:             viper.GetString("DB_HOST"),
		DBUser:             viper.GetString("DB_USER"),
		DBPassword:         viper.GetString("DB_PASSWORD"),
		DBName:             viper.GetString("DB_NAME"),
		DBPort:             viper.GetString("DB_PORT"),
		DBSSLMode:          viper.GetString("DB_SSLMODE"),
		RedisAddr:          viper.GetString("REDIS_ADDR"),
		KafkaBroker:        viper.GetString("KAFKA_BROKER"),
		Port:               viper.GetString("PORT"),
		ReadTimeout:        viper.GetDuration("READ_TIMEOUT"),
		WriteTimeout:       viper.GetDuration("WRITE_TIMEOUT"),
		IdleTimeout:        viper.GetDuration("IDLE_TIMEOUT"),
		JWTSecret:          viper.GetString("JWT_SECRET"),
		OutboxPollInterval: viper.GetDuration("OUTBOX_POLL_INTERVAL"),
	}

	return cfg, nil
}
