package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, "localhost:6379", config.RedisAddr)
	assert.Equal(t, 0, config.RedisDB)
	assert.Equal(t, "listings", config.RedisStream)
	assert.Equal(t, "localhost:11211", config.MemcacheAddr)
	assert.Equal(t, "09:00", config.DailyScrapeTime)
	assert.Equal(t, 30*time.Second, config.FetchTimeout)
	assert.Equal(t, 60*time.Second, config.RenderTimeout)
	assert.Equal(t, ":8000", config.ListenAddr)

	// Test with environment variables
	os.Setenv("REDIS_ADDR", "redis.example.com:6379")
	os.Setenv("REDIS_DB", "1")
	os.Setenv("DAILY_SCRAPE_TIME", "07:30")
	os.Setenv("FETCH_TIMEOUT_SECONDS", "10")
	os.Setenv("POSTGRES_DSN", "postgres://localhost/rentscout")

	config = LoadConfig()
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, 1, config.RedisDB)
	assert.Equal(t, "07:30", config.DailyScrapeTime)
	assert.Equal(t, 10*time.Second, config.FetchTimeout)
	assert.Equal(t, "postgres://localhost/rentscout", config.PostgresDSN)

	// Clean up
	os.Unsetenv("REDIS_ADDR")
	os.Unsetenv("REDIS_DB")
	os.Unsetenv("DAILY_SCRAPE_TIME")
	os.Unsetenv("FETCH_TIMEOUT_SECONDS")
	os.Unsetenv("POSTGRES_DSN")
}

func TestConfigValidate(t *testing.T) {
	cfg := LoadConfig()
	assert.NoError(t, cfg.Validate())

	cfg.DailyScrapeTime = "25:99"
	assert.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.FetchTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.RedisStreamCount = 0
	assert.Error(t, cfg.Validate())
}

func TestParseDailyTime(t *testing.T) {
	d, err := ParseDailyTime("09:30")
	assert.NoError(t, err)
	assert.Equal(t, 9*time.Hour+30*time.Minute, d)

	_, err = ParseDailyTime("9 am")
	assert.Error(t, err)
}
