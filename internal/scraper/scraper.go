package scraper

import (
	"context"
	"fmt"
	"time"

	"mkarlsen/rentscout/config"
	"mkarlsen/rentscout/logger"
	apperrors "mkarlsen/rentscout/pkg/errors"
	"mkarlsen/rentscout/services/cache"
)

// Candidate is the unstructured text bag extracted per matched container
// element, prior to typed normalization. It lives only between extraction
// and normalization.
type Candidate struct {
	Title            string
	Link             string
	PriceText        string
	DetailsText      string
	AvailabilityText string
}

// Scraper is the capability shared by both variants: produce the raw
// candidates for one configured site.
type Scraper interface {
	// Scrape fetches or renders the site's page and extracts candidates
	Scrape(ctx context.Context) ([]Candidate, error)

	// Site returns the configured site name for logging and identification
	Site() string
}

// Options carries cross-site construction parameters
type Options struct {
	CacheSvc      cache.CacheService
	FetchTimeout  time.Duration
	RenderTimeout time.Duration
	BlockTime     time.Duration
}

// New binds a site configuration to the scraper variant it declares
func New(site config.Site, opts Options) (Scraper, error) {
	switch site.ScraperType {
	case config.ScraperStatic:
		return NewStatic(site, opts), nil
	case config.ScraperInteractive:
		return NewInteractive(site, opts), nil
	default:
		return nil, apperrors.NewConfiguration(
			fmt.Sprintf("site %q: unknown scraper_type %q", site.Name, site.ScraperType), nil)
	}
}

// NewAll builds one scraper per configured site, keyed by the site name as
// declared. Lookups stay case-insensitive because FindSite canonicalizes
// before the map is consulted.
func NewAll(sites []config.Site, opts Options) (map[string]Scraper, error) {
	scrapers := make(map[string]Scraper, len(sites))
	for _, site := range sites {
		s, err := New(site, opts)
		if err != nil {
			return nil, err
		}
		scrapers[site.Name] = s
	}
	return scrapers, nil
}

// baseScraper carries what both variants share: the site config, a logger,
// and the optional rate-limit guard backed by the cache service.
type baseScraper struct {
	site      config.Site
	cacheSvc  cache.CacheService
	blockTime time.Duration
	log       *logger.Logger
}

func newBase(site config.Site, opts Options) baseScraper {
	blockTime := opts.BlockTime
	if blockTime == 0 {
		blockTime = 5 * time.Minute
	}
	return baseScraper{
		site:      site,
		cacheSvc:  opts.CacheSvc,
		blockTime: blockTime,
		log:       logger.ForSite(site.Name),
	}
}

// Site returns the configured site name
func (b *baseScraper) Site() string {
	return b.site.Name
}

func (b *baseScraper) rateLimitKey() string {
	return b.site.Name + "_rate_limited"
}

// checkRateLimit returns an error while the site's back-off window is open
func (b *baseScraper) checkRateLimit() error {
	if b.cacheSvc == nil {
		return nil
	}
	if _, err := b.cacheSvc.Get(b.rateLimitKey()); err == nil {
		return apperrors.NewFetch(b.site.Name,
			fmt.Sprintf("rate limited, holding off for %s", b.blockTime), nil)
	}
	return nil
}

// markRateLimited opens the back-off window after the remote site throttled us
func (b *baseScraper) markRateLimited() {
	if b.cacheSvc == nil {
		return
	}
	if err := b.cacheSvc.Set(b.rateLimitKey(),
		[]byte(fmt.Sprintf("%d", b.blockTime/time.Second)), b.blockTime); err != nil {
		b.log.Warn().Err(err).Msg("Failed to set rate limit guard")
	}
}
