package notify

import (
	"fmt"
	"sort"
	"strings"

	"mkarlsen/rentscout/internal/listing"
	"mkarlsen/rentscout/internal/pipeline"
)

// EscapeHTML escapes the characters Telegram's HTML parse mode treats as
// markup.
func EscapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}

// FormatListing renders a single listing as a message block
func FormatListing(l listing.Listing) string {
	lines := []string{fmt.Sprintf("<b>%s</b>", EscapeHTML(l.Title))}

	if l.Price != nil {
		lines = append(lines, fmt.Sprintf("Price: $%.0f/mo", *l.Price))
	}

	var details []string
	if l.Bedrooms != nil {
		details = append(details, fmt.Sprintf("%d bed", *l.Bedrooms))
	}
	if l.Bathrooms != nil {
		details = append(details, fmt.Sprintf("%.1f bath", *l.Bathrooms))
	}
	if l.Sqft != nil {
		details = append(details, fmt.Sprintf("%d sqft", *l.Sqft))
	}
	if len(details) > 0 {
		lines = append(lines, strings.Join(details, " | "))
	}

	if l.MoveInDate != nil {
		lines = append(lines, fmt.Sprintf("Available: %s", l.MoveInDate.Format("2006-01-02")))
	}
	if !l.Available {
		lines = append(lines, "<i>Currently unavailable</i>")
	}

	lines = append(lines, EscapeHTML(l.URL))
	return strings.Join(lines, "\n")
}

// FormatRunSummary renders per-site results as an operator digest: new
// listings in full, removals and failures as counts and tagged errors.
func FormatRunSummary(results map[string]pipeline.Result) string {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		blocks    []string
		totalNew  int
		errLines  []string
		goneLines []string
	)

	for _, name := range names {
		res := results[name]
		if res.Err != nil {
			errLines = append(errLines, fmt.Sprintf("%s: %s (%s)",
				EscapeHTML(name), EscapeHTML(res.Err.Message), res.Err.Kind))
			continue
		}
		for _, l := range res.Diff.New {
			blocks = append(blocks, FormatListing(l))
			totalNew++
		}
		if n := len(res.Diff.Removed); n > 0 {
			goneLines = append(goneLines, fmt.Sprintf("%s: %d listing(s) gone", EscapeHTML(name), n))
		}
	}

	var sections []string
	if totalNew > 0 {
		header := fmt.Sprintf("<b>Found %d new listing(s)</b>", totalNew)
		sections = append(sections, header+"\n\n"+strings.Join(blocks, "\n\n"))
	} else {
		sections = append(sections, "No new listings found.")
	}
	if len(goneLines) > 0 {
		sections = append(sections, "Removed:\n"+strings.Join(goneLines, "\n"))
	}
	if len(errLines) > 0 {
		sections = append(sections, "Failed:\n"+strings.Join(errLines, "\n"))
	}

	return strings.Join(sections, "\n\n")
}

// FormatSiteResult renders one site's result for an on-demand scrape reply
func FormatSiteResult(res pipeline.Result) string {
	if res.Err != nil {
		return fmt.Sprintf("Error scraping %s: %s (%s)",
			EscapeHTML(res.Site), EscapeHTML(res.Err.Message), res.Err.Kind)
	}
	return FormatRunSummary(map[string]pipeline.Result{res.Site: res})
}

// FormatStatus renders the bot status message
func FormatStatus(totalSites, totalListings int, lastScrape string) string {
	lines := []string{
		"<b>Rentscout Status</b>",
		"",
		fmt.Sprintf("Sites configured: %d", totalSites),
		fmt.Sprintf("Total listings tracked: %d", totalListings),
	}
	if lastScrape != "" {
		lines = append(lines, fmt.Sprintf("Last scrape: %s", lastScrape))
	}
	return strings.Join(lines, "\n")
}

// FormatSiteList renders the configured site names
func FormatSiteList(names []string) string {
	if len(names) == 0 {
		return "No sites configured."
	}
	lines := []string{"<b>Configured Sites:</b>", ""}
	for _, n := range names {
		lines = append(lines, "- "+EscapeHTML(n))
	}
	return strings.Join(lines, "\n")
}
