package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mkarlsen/rentscout/config"
	apperrors "mkarlsen/rentscout/pkg/errors"
)

func TestNewSelectsVariant(t *testing.T) {
	static, err := New(config.Site{
		Name:        "a",
		URL:         "https://example.com",
		ScraperType: config.ScraperStatic,
		Selectors:   config.Selectors{Container: ".x"},
	}, Options{})
	require.NoError(t, err)
	assert.IsType(t, &StaticScraper{}, static)

	interactive, err := New(config.Site{
		Name:        "b",
		URL:         "https://example.com",
		ScraperType: config.ScraperInteractive,
		Selectors:   config.Selectors{Container: ".x"},
	}, Options{})
	require.NoError(t, err)
	assert.IsType(t, &InteractiveScraper{}, interactive)
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(config.Site{
		Name:        "a",
		URL:         "https://example.com",
		ScraperType: "quantum",
	}, Options{})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConfiguration, apperrors.KindOf(err))
}

func TestNewAll(t *testing.T) {
	sites := []config.Site{
		{Name: "a", URL: "https://example.com", ScraperType: config.ScraperStatic},
		{Name: "b", URL: "https://example.com", ScraperType: config.ScraperInteractive},
	}

	scrapers, err := NewAll(sites, Options{})
	require.NoError(t, err)
	require.Len(t, scrapers, 2)
	assert.Equal(t, "a", scrapers["a"].Site())
	assert.Equal(t, "b", scrapers["b"].Site())
}

func TestCheckRateLimitWithoutCache(t *testing.T) {
	// No cache service configured means the guard is simply inactive
	b := newBase(config.Site{Name: "a", URL: "https://example.com"}, Options{})
	assert.NoError(t, b.checkRateLimit())
	b.markRateLimited()
	assert.NoError(t, b.checkRateLimit())
}
