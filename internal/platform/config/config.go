package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	RateLimit     string

	// Ledger behaviour
	GenesisAccountID      string
	RevenueAccountID      string
	BaseCurrencyCode      string
	TransferFeeRate       decimal.Decimal
	AllowNegativeBalances bool
	LockTimeout           time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("GENESIS_ACCOUNT_ID", "00000000-0000-0000-0000-000000000001")
	viper.SetDefault("REVENUE_ACCOUNT_ID", "00000000-0000-0000-0000-000000000002")
	viper.SetDefault("BASE_CURRENCY", "USD")
	viper.SetDefault("TRANSFER_FEE_RATE", "0")
	viper.SetDefault("ALLOW_NEGATIVE_BALANCES", false)
	viper.SetDefault("LOCK_TIMEOUT", "3s")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set. Falling back to the in-memory store.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	cfg.GenesisAccountID = viper.GetString("GENESIS_ACCOUNT_ID")
	cfg.RevenueAccountID = viper.GetString("REVENUE_ACCOUNT_ID")
	cfg.BaseCurrencyCode = viper.GetString("BASE_CURRENCY")
	cfg.AllowNegativeBalances = viper.GetBool("ALLOW_NEGATIVE_BALANCES")

	feeRateStr := viper.GetString("TRANSFER_FEE_RATE")
	feeRate, err := decimal.NewFromString(feeRateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid value for TRANSFER_FEE_RATE ('%s'): %w", feeRateStr, err)
	}
	if feeRate.IsNegative() || feeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("TRANSFER_FEE_RATE must be in [0, 1), got %s", feeRate)
	}
	cfg.TransferFeeRate = feeRate

	lockTimeoutStr := viper.GetString("LOCK_TIMEOUT")
	lockTimeout, err := time.ParseDuration(lockTimeoutStr)
	if err != nil || lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
		log.Printf("Warning: Invalid value for LOCK_TIMEOUT ('%s'). Defaulting to %s.\n", lockTimeoutStr, lockTimeout)
	}
	cfg.LockTimeout = lockTimeout

	return cfg, nil
}
