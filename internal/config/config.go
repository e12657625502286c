package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	FatebookBaseURL  string `env:"FATEBOOK_BASE_URL" envDefault:"https://fatebook.io"`
	FatebookAPIKey   string `env:"FATEBOOK_API_KEY"` // CLI fallback when no settings file exists
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout   int    `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds
	RequestsPerSec   int    `env:"REQUESTS_PER_SEC" envDefault:"5"`
	FormTimeout      int    `env:"FORM_TIMEOUT" envDefault:"600"` // seconds
	DB               DBConfig
}

// DBConfig holds PostgreSQL connection parameters
type DBConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Name     string `env:"DB_NAME" envDefault:"fatebook"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.FatebookBaseURL = getEnvWithDefault("FATEBOOK_BASE_URL", "https://fatebook.io")
	cfg.FatebookAPIKey = os.Getenv("FATEBOOK_API_KEY")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", 5)
	cfg.FormTimeout = getEnvIntWithDefault("FORM_TIMEOUT", 600)

	cfg.DB.Host = getEnvWithDefault("DB_HOST", "localhost")
	cfg.DB.Port = getEnvWithDefault("DB_PORT", "5432")
	cfg.DB.User = os.Getenv("DB_USER")
	cfg.DB.Password = os.Getenv("DB_PASSWORD")
	cfg.DB.Name = getEnvWithDefault("DB_NAME", "fatebook")
	cfg.DB.SSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	return &cfg, nil
}

// RequestTimeoutDuration is the per-request HTTP timeout.
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// FormTimeoutDuration bounds how long a chat form waits for answers.
func (c *Config) FormTimeoutDuration() time.Duration {
	return time.Duration(c.FormTimeout) * time.Second
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}
