package config

import (
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all process configuration, sourced from environment variables
// (a .env file is loaded by main before this is read).
type Config struct {
	HTTPPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Empty means no database: the service runs on the in-memory store.
	DatabaseEnabled bool

	AlphaVantageKey string

	TradeWorkers    int
	BcryptCost      int
	StartingBalance decimal.Decimal
}

// Load reads configuration from the environment, applying defaults
func Load() Config {
	return Config{
		HTTPPort:        getEnv("PORT", "8080"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "trader"),
		DBPassword:      getEnv("DB_PASSWORD", ""),
		DBName:          getEnv("DB_NAME", "paper_trader"),
		DatabaseEnabled: getEnv("DB_DISABLED", "") == "",
		AlphaVantageKey: getEnv("ALPHA_VANTAGE_API_KEY", ""),
		TradeWorkers:    getEnvInt("TRADE_WORKERS", 5),
		BcryptCost:      getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
		StartingBalance: getEnvDecimal("STARTING_BALANCE", decimal.NewFromInt(10000)),
	}
}

// Helper to get environment variable with default
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return defaultValue
	}
	return d
}
