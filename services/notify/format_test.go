package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mkarlsen/rentscout/internal/listing"
	"mkarlsen/rentscout/internal/pipeline"
	apperrors "mkarlsen/rentscout/pkg/errors"
)

func sampleListing() listing.Listing {
	price := 1500.0
	beds := 1
	baths := 1.0
	sqft := 800
	moveIn := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return listing.Listing{
		ID:         "abc123",
		SiteName:   "maple-court",
		Title:      "Unit 4B <deluxe>",
		URL:        "https://example.com/units/4b?a=1&b=2",
		Price:      &price,
		Bedrooms:   &beds,
		Bathrooms:  &baths,
		Sqft:       &sqft,
		Available:  true,
		MoveInDate: &moveIn,
	}
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "a &amp;&amp; b &lt;c&gt;", EscapeHTML("a && b <c>"))
}

func TestFormatListing(t *testing.T) {
	msg := FormatListing(sampleListing())

	assert.Contains(t, msg, "<b>Unit 4B &lt;deluxe&gt;</b>")
	assert.Contains(t, msg, "Price: $1500/mo")
	assert.Contains(t, msg, "1 bed | 1.0 bath | 800 sqft")
	assert.Contains(t, msg, "Available: 2026-03-01")
	assert.Contains(t, msg, "https://example.com/units/4b?a=1&amp;b=2")
	assert.NotContains(t, msg, "unavailable")
}

func TestFormatListingSparse(t *testing.T) {
	msg := FormatListing(listing.Listing{Title: "Unit 2A", URL: "https://example.com/2a"})

	assert.Contains(t, msg, "<b>Unit 2A</b>")
	assert.Contains(t, msg, "<i>Currently unavailable</i>")
	assert.NotContains(t, msg, "Price:")
	assert.NotContains(t, msg, "bed")
}

func TestFormatRunSummary(t *testing.T) {
	results := map[string]pipeline.Result{
		"maple-court": {
			Site: "maple-court",
			Diff: listing.DiffResult{
				New:     []listing.Listing{sampleListing()},
				Removed: []listing.Listing{{Title: "Unit 1A"}, {Title: "Unit 1B"}},
			},
		},
		"riverside": {
			Site: "riverside",
			Err:  apperrors.NewRenderTimeout("riverside", "render timed out", nil),
		},
	}

	msg := FormatRunSummary(results)

	assert.Contains(t, msg, "Found 1 new listing(s)")
	assert.Contains(t, msg, "Unit 4B")
	assert.Contains(t, msg, "maple-court: 2 listing(s) gone")
	assert.Contains(t, msg, "riverside: render timed out (render_timeout)")
}

func TestFormatRunSummaryQuiet(t *testing.T) {
	results := map[string]pipeline.Result{
		"maple-court": {Site: "maple-court"},
	}
	msg := FormatRunSummary(results)

	assert.Contains(t, msg, "No new listings found.")
	assert.NotContains(t, msg, "Removed:")
	assert.NotContains(t, msg, "Failed:")
}

func TestFormatSiteResultError(t *testing.T) {
	res := pipeline.Result{
		Site: "nowhere",
		Err:  apperrors.NewUnknownSite("nowhere"),
	}
	msg := FormatSiteResult(res)
	assert.Contains(t, msg, "Error scraping nowhere")
	assert.Contains(t, msg, "unknown_site")
}

func TestFormatStatus(t *testing.T) {
	msg := FormatStatus(3, 42, "2026-02-10 09:00")
	assert.Contains(t, msg, "Sites configured: 3")
	assert.Contains(t, msg, "Total listings tracked: 42")
	assert.Contains(t, msg, "Last scrape: 2026-02-10 09:00")

	never := FormatStatus(3, 0, "")
	assert.NotContains(t, never, "Last scrape")
}

func TestFormatSiteList(t *testing.T) {
	msg := FormatSiteList([]string{"maple-court", "riverside"})
	assert.Contains(t, msg, "- maple-court")
	assert.Contains(t, msg, "- riverside")

	assert.Equal(t, "No sites configured.", FormatSiteList(nil))
}
