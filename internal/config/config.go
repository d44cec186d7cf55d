// Package config handles loading and validating configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/chainwatch/monitor/internal/store"
)

// Config holds all configuration values for the monitor.
type Config struct {
	// Telegram
	TelegramToken string
	ChatID        string

	// Watch-list
	Addresses map[store.Chain][]string
	Labels    map[store.Chain]map[string]string

	// Feed endpoints
	BTCWSURL string
	ETHWSURL string

	// Filtering
	MinimumUSDValue float64
	IgnoreDust      bool

	// Intervals
	PriceUpdateInterval time.Duration
	ReportInterval      time.Duration

	// Messaging
	MaxAddressesPerMessage int
	PublicDomain           string

	// Price source
	PriceEndpoint string

	// HTTP surface
	Port int

	// UI
	EnableTUI bool

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables with fallback to .env file.
// Priority order: Environment variables > .env file > hardcoded defaults
func Load() (*Config, error) {
	// Attempt to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken: getEnv("TELEGRAM_TOKEN", ""),
		ChatID:        getEnv("CHAT_ID", ""),

		Addresses: map[store.Chain][]string{
			store.ChainBTC: splitList(getEnv("BTC_ADDRESSES", "")),
			store.ChainETH: splitList(getEnv("ETH_ADDRESSES", "")),
		},
		Labels: map[store.Chain]map[string]string{
			store.ChainBTC: parseLabels(getEnv("BTC_LABELS", "")),
			store.ChainETH: parseLabels(getEnv("ETH_LABELS", "")),
		},

		BTCWSURL: getEnv("BTC_WS_URL", "wss://ws.blockchain.info/inv"),
		ETHWSURL: getEnv("ETH_WS_URL", ""),

		MinimumUSDValue: getEnvFloat("MINIMUM_USD_VALUE", 2.0),
		IgnoreDust:      getEnvBool("IGNORE_DUST_TRANSACTIONS", true),

		PriceUpdateInterval: time.Duration(getEnvInt("PRICE_UPDATE_INTERVAL", 300)) * time.Second,
		ReportInterval:      time.Duration(getEnvInt("HEALTH_CHECK_INTERVAL", 21600)) * time.Second,

		MaxAddressesPerMessage: getEnvInt("MAX_ADDRESSES_PER_MESSAGE", 10),
		PublicDomain:           getEnv("PUBLIC_DOMAIN", ""),

		PriceEndpoint: getEnv("PRICE_ENDPOINT", ""),

		Port: getEnvInt("PORT", 8080),

		EnableTUI: getEnvBool("ENABLE_TUI", false),

		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set and valid.
// Malformed individual addresses are not rejected here; the address
// book drops them with a warning at load time.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	if c.ChatID == "" {
		return fmt.Errorf("CHAT_ID is required")
	}

	total := 0
	for _, chain := range store.Chains {
		total += len(c.Addresses[chain])
	}
	if total == 0 {
		return fmt.Errorf("at least one BTC or ETH address must be specified")
	}

	if c.MinimumUSDValue < 0 {
		return fmt.Errorf("MINIMUM_USD_VALUE must not be negative")
	}

	if c.PriceUpdateInterval <= 0 {
		return fmt.Errorf("PRICE_UPDATE_INTERVAL must be positive")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	return nil
}

// MaskedTelegramToken returns the bot token with most characters hidden for logging.
func (c *Config) MaskedTelegramToken() string {
	return maskSecret(c.TelegramToken)
}

// maskSecret hides all but the first and last 4 characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 8 {
		if len(s) == 0 {
			return "(not set)"
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// splitList parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseLabels parses comma-separated address:label pairs. Labels may
// contain colons; only the first one separates address from label.
func parseLabels(s string) map[string]string {
	labels := make(map[string]string)
	if s == "" {
		return labels
	}
	for _, pair := range strings.Split(s, ",") {
		addr, label, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		addr = strings.TrimSpace(addr)
		label = strings.TrimSpace(label)
		if addr != "" && label != "" {
			labels[addr] = label
		}
	}
	return labels
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat retrieves an environment variable as a float64 or returns a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean or returns a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
