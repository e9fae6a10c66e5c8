package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings for the pricer service
type Config struct {
	// Market API (upload target)
	MarketBaseURL  string
	MarketEmail    string
	MarketPassword string
	DryRun         bool

	// Scraping
	ScrapeConcurrency int
	ScrapeTimeout     time.Duration
	PageLoadWait      time.Duration
	MaxAliasesPerRun  int
	Headless          bool

	// RetryMode restricts a run to aliases whose last scrape failed or is
	// still pending; normal runs fetch the full alias list. StoreFilter
	// limits either fetch to one retailer.
	RetryMode   bool
	StoreFilter string

	// Scheduling (cron expression with seconds field)
	ScrapeSchedule string

	// HTTP server
	Port       string
	Host       string
	AdminToken string

	// Rate limiting (requests per second for admin API)
	RateLimitRPS float64
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		MarketBaseURL:  getEnv("MARKET_BASE_URL", "https://mastermarket-production.up.railway.app"),
		MarketEmail:    getEnv("MARKET_EMAIL", ""),
		MarketPassword: getEnv("MARKET_PASSWORD", ""),
		DryRun:         getEnvBool("DRY_RUN", false),

		ScrapeConcurrency: getEnvInt("SCRAPE_CONCURRENCY", 3),
		ScrapeTimeout:     getEnvDuration("SCRAPE_TIMEOUT", 45*time.Second),
		PageLoadWait:      getEnvDuration("PAGE_LOAD_WAIT", 5*time.Second),
		MaxAliasesPerRun:  getEnvInt("MAX_ALIASES_PER_RUN", 0), // 0 means no cap
		Headless:          getEnvBool("HEADLESS", true),

		RetryMode:   getEnvBool("RETRY_MODE", false),
		StoreFilter: getEnv("STORE_FILTER", ""),

		// Tuesdays and Fridays at 06:00, when Irish retailers rotate offers
		ScrapeSchedule: getEnv("SCRAPE_SCHEDULE", "0 0 6 * * TUE,FRI"),

		Port:       getEnv("PORT", "8080"),
		Host:       getEnv("HOST", "0.0.0.0"),
		AdminToken: getEnv("ADMIN_TOKEN", ""),

		RateLimitRPS: getEnvFloat("RATE_LIMIT_RPS", 5),
	}
}

// HasMarketCredentials reports whether uploads can authenticate
func (c *Config) HasMarketCredentials() bool {
	return c.MarketEmail != "" && c.MarketPassword != ""
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
