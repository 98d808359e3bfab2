package server

import (
	"context"
	"fmt"
	"strings"

	"mkarlsen/rentscout/config"
	apperrors "mkarlsen/rentscout/pkg/errors"
	"mkarlsen/rentscout/services/notify"
)

const helpText = `<b>Available Commands:</b>

- <b>scrape</b> - Scrape all configured sites
- <b>scrape &lt;site&gt;</b> - Scrape a specific site
- <b>status</b> - Get bot status
- <b>list</b> - List configured sites
- <b>help</b> - Show this message`

// HandleCommand parses an inbound chat message and returns the reply text
func (s *Server) HandleCommand(ctx context.Context, text string) string {
	cmd := strings.ToLower(strings.TrimSpace(text))

	switch {
	case cmd == "help":
		return helpText

	case cmd == "list":
		return notify.FormatSiteList(config.SiteNames(s.sites))

	case cmd == "status":
		return s.statusReply(ctx)

	case cmd == "scrape":
		results := s.worker.ScrapeAndNotify(ctx)
		return notify.FormatRunSummary(results)

	case strings.HasPrefix(cmd, "scrape "):
		// Preserve the original casing of the site name
		name := strings.TrimSpace(strings.TrimSpace(text)[len("scrape "):])
		res := s.worker.ScrapeSite(ctx, name)
		if res.Err != nil && res.Err.Kind == apperrors.KindUnknownSite {
			return fmt.Sprintf("Site '%s' not found.\n\nAvailable sites: %s",
				notify.EscapeHTML(name), strings.Join(config.SiteNames(s.sites), ", "))
		}
		return notify.FormatSiteResult(res)

	default:
		return fmt.Sprintf("Unknown command: '%s'\n\n%s", notify.EscapeHTML(cmd), helpText)
	}
}

func (s *Server) statusReply(ctx context.Context) string {
	count, err := s.store.CountListings(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to count listings")
	}

	lastScrape := ""
	if t := s.worker.LastRun(); !t.IsZero() {
		lastScrape = t.Format("2006-01-02 15:04:05")
	}

	return notify.FormatStatus(len(s.sites), count, lastScrape)
}
