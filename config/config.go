package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	apperrors "mkarlsen/rentscout/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Redis configuration (new-listing stream)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration (rate-limit guard)
	MemcacheAddr string

	// Postgres snapshot store; empty DSN selects the in-memory store
	PostgresDSN string

	// Telegram notification
	TelegramBotToken string
	TelegramChatID   string

	// Scheduling: local HH:MM of the daily scrape
	DailyScrapeTime string

	// Scrape bounds
	FetchTimeout  time.Duration
	RenderTimeout time.Duration

	// HTTP server
	ListenAddr string

	// Site definitions file
	SitesPath string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "30"))
	renderTimeout, _ := strconv.Atoi(getEnv("RENDER_TIMEOUT_SECONDS", "60"))

	return &Config{
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "listings"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		PostgresDSN:          getEnv("POSTGRES_DSN", ""),
		TelegramBotToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:       getEnv("TELEGRAM_CHAT_ID", ""),
		DailyScrapeTime:      getEnv("DAILY_SCRAPE_TIME", "09:00"),
		FetchTimeout:         time.Duration(fetchTimeout) * time.Second,
		RenderTimeout:        time.Duration(renderTimeout) * time.Second,
		ListenAddr:           getEnv("LISTEN_ADDR", ":8000"),
		SitesPath:            getEnv("SITES_PATH", "config/sites.yaml"),
		Environment:          getEnv("RENTSCOUT_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the process cannot run with
func (c *Config) Validate() error {
	if _, err := ParseDailyTime(c.DailyScrapeTime); err != nil {
		return apperrors.NewConfiguration(
			fmt.Sprintf("invalid DAILY_SCRAPE_TIME %q", c.DailyScrapeTime), err)
	}
	if c.FetchTimeout <= 0 {
		return apperrors.NewConfiguration("FETCH_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.RenderTimeout <= 0 {
		return apperrors.NewConfiguration("RENDER_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.RedisStreamCount < 1 {
		return apperrors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
	}
	return nil
}

// ParseDailyTime parses an HH:MM clock string into hour and minute
func ParseDailyTime(hhmm string) (time.Duration, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
