package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/trade-setup-engine/internal/retry"
)

// DefaultEnvFile is loaded when present
const DefaultEnvFile = ".env"

type Config struct {
	Environment string
	LogDir      string

	Files struct {
		Settings string
		Catalog  string
		Journal  string
	}

	Server struct {
		Port int
	}

	Quotes struct {
		Enabled    bool
		APIKey     string
		APISecret  string
		Testnet    bool
		Demo       bool
		Categories []string
		Retry      retry.Config

		// Requests per second and burst; zero disables throttling
		RateLimit float64
		Burst     int

		BreakerThreshold int
		BreakerTimeout   time.Duration
	}

	Notifications struct {
		TelegramToken  string
		TelegramChatID string
	}
}

// Load reads the given env files (missing ones are skipped) and builds the config
// from the environment. Variables already set in the environment win over files.
func Load(envFiles ...string) (*Config, error) {
	for _, path := range envFiles {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); stderrors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return nil, err
		}
	}
	return FromEnv(), nil
}

// FromEnv builds the config from the process environment only
func FromEnv() *Config {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		LogDir:      getEnv("LOG_DIR", "logs"),
	}

	cfg.Files.Settings = getEnv("SETTINGS_FILE", "")
	cfg.Files.Catalog = getEnv("CATALOG_FILE", "")
	cfg.Files.Journal = getEnv("JOURNAL_FILE", "data/trade_journal.json")

	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)

	defaults := retry.DefaultConfig()
	cfg.Quotes.Enabled = getEnvBool("BYBIT_QUOTES_ENABLED", false)
	cfg.Quotes.APIKey = getEnv("BYBIT_API_KEY", "")
	cfg.Quotes.APISecret = getEnv("BYBIT_API_SECRET", "")
	cfg.Quotes.Testnet = getEnvBool("BYBIT_TESTNET", false)
	cfg.Quotes.Demo = getEnvBool("BYBIT_DEMO", false)
	cfg.Quotes.Categories = getEnvList("BYBIT_CATEGORIES", []string{"linear", "spot"})
	cfg.Quotes.Retry = retry.Config{
		MaxRetries:    getEnvInt("QUOTE_MAX_RETRIES", defaults.MaxRetries),
		InitialDelay:  getEnvDuration("QUOTE_INITIAL_DELAY", defaults.InitialDelay),
		MaxDelay:      getEnvDuration("QUOTE_MAX_DELAY", defaults.MaxDelay),
		BackoffFactor: getEnvFloat("QUOTE_BACKOFF_FACTOR", defaults.BackoffFactor),
		JitterEnabled: getEnvBool("QUOTE_JITTER", defaults.JitterEnabled),
	}
	cfg.Quotes.RateLimit = getEnvFloat("QUOTE_RATE_LIMIT", 5)
	cfg.Quotes.Burst = getEnvInt("QUOTE_BURST", 10)
	cfg.Quotes.BreakerThreshold = getEnvInt("QUOTE_BREAKER_THRESHOLD", 5)
	cfg.Quotes.BreakerTimeout = getEnvDuration("QUOTE_BREAKER_TIMEOUT", 30*time.Second)

	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	cfg.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")

	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return val
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return val
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
