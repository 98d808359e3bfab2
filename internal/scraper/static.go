package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/PuerkitoBio/goquery"

	"mkarlsen/rentscout/config"
	"mkarlsen/rentscout/helpers"
	apperrors "mkarlsen/rentscout/pkg/errors"
)

// StaticScraper handles sites whose listings are present in the initial HTML
// response. One GET, no script execution, no internal retries.
type StaticScraper struct {
	baseScraper
	timeout time.Duration
}

// NewStatic creates a static scraper for the given site
func NewStatic(site config.Site, opts Options) *StaticScraper {
	timeout := opts.FetchTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &StaticScraper{
		baseScraper: newBase(site, opts),
		timeout:     timeout,
	}
}

// Scrape fetches the configured URL and extracts candidates from the parsed
// document. Transport failures, timeouts, and non-success statuses surface
// as fetch errors for the orchestrator to record per site.
func (s *StaticScraper) Scrape(ctx context.Context) ([]Candidate, error) {
	if err := s.checkRateLimit(); err != nil {
		return nil, err
	}

	body, err := helpers.Fetch(ctx, s.site.URL, s.timeout)
	if err != nil {
		if errors.Is(err, helpers.ErrRateLimited) {
			s.markRateLimited()
		}
		return nil, apperrors.NewFetch(s.site.Name, "fetch failed", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, apperrors.NewFetch(s.site.Name, "html parse failed", err)
	}

	candidates := ExtractCandidates(doc, s.site.Selectors)
	s.log.Debug().Int("candidates", len(candidates)).Msg("Static scrape complete")
	return candidates, nil
}
