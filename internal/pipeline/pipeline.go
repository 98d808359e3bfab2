package pipeline

import (
	"context"
	"sync"
	"time"

	"mkarlsen/rentscout/config"
	"mkarlsen/rentscout/internal/listing"
	"mkarlsen/rentscout/internal/scraper"
	"mkarlsen/rentscout/logger"
	apperrors "mkarlsen/rentscout/pkg/errors"
	"mkarlsen/rentscout/services/store"
)

// Result is the outcome of one site's scrape-normalize-reconcile cycle.
// Exactly one of Diff and Err is meaningful.
type Result struct {
	Site string
	Diff listing.DiffResult
	Err  *apperrors.ScrapeError
}

// Orchestrator runs the scrape pipeline across configured sites, isolating
// per-site failures and serializing concurrent triggers for the same site.
type Orchestrator struct {
	sites    []config.Site
	scrapers map[string]scraper.Scraper
	store    store.Store
	log      *logger.Logger

	mu        sync.Mutex
	siteLocks map[string]*sync.Mutex
}

// New creates an orchestrator over the given sites and their scrapers
func New(sites []config.Site, scrapers map[string]scraper.Scraper, st store.Store) *Orchestrator {
	return &Orchestrator{
		sites:     sites,
		scrapers:  scrapers,
		store:     st,
		log:       logger.ForPipeline(),
		siteLocks: make(map[string]*sync.Mutex),
	}
}

// Sites returns the configured sites in declaration order
func (o *Orchestrator) Sites() []config.Site {
	return o.sites
}

// RunAll scrapes every configured site concurrently and returns per-site
// results keyed by site name. One site's failure never aborts or delays the
// others.
func (o *Orchestrator) RunAll(ctx context.Context) map[string]Result {
	results := make(map[string]Result, len(o.sites))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, site := range o.sites {
		wg.Add(1)
		go func(site config.Site) {
			defer wg.Done()
			res := o.runSite(ctx, site)
			mu.Lock()
			results[site.Name] = res
			mu.Unlock()
		}(site)
	}
	wg.Wait()

	return results
}

// RunSite scrapes one named site. An unconfigured name yields an
// unknown-site result without touching the store.
func (o *Orchestrator) RunSite(ctx context.Context, name string) Result {
	site, ok := config.FindSite(o.sites, name)
	if !ok {
		return Result{Site: name, Err: apperrors.NewUnknownSite(name)}
	}
	return o.runSite(ctx, site)
}

// runSite executes one full cycle under the site's mutex so a scheduled run
// and an on-demand trigger for the same site queue instead of interleaving.
func (o *Orchestrator) runSite(ctx context.Context, site config.Site) Result {
	lock := o.lockFor(site.Name)
	lock.Lock()
	defer lock.Unlock()

	log := logger.ForSite(site.Name)
	start := time.Now()

	scr, ok := o.scrapers[site.Name]
	if !ok {
		return Result{Site: site.Name, Err: apperrors.NewUnknownSite(site.Name)}
	}

	candidates, err := scr.Scrape(ctx)
	if err != nil {
		serr := apperrors.AsScrape(err, apperrors.KindFetch, site.Name)
		log.Error().Err(serr).Msg("Scrape failed, snapshot untouched")
		return Result{Site: site.Name, Err: serr}
	}

	now := time.Now()
	fresh := make([]listing.Listing, 0, len(candidates))
	for _, c := range candidates {
		fresh = append(fresh, listing.Normalize(c, site.Name, site.URL, now))
	}

	diff, err := o.store.Reconcile(ctx, site.Name, fresh, now)
	if err != nil {
		serr := apperrors.AsScrape(err, apperrors.KindStore, site.Name)
		log.Error().Err(serr).Msg("Reconcile failed, snapshot untouched")
		return Result{Site: site.Name, Err: serr}
	}

	log.Info().
		Int("scraped", len(fresh)).
		Int("new", len(diff.New)).
		Int("removed", len(diff.Removed)).
		Dur("elapsed", time.Since(start)).
		Msg("Site cycle complete")

	// A sudden mass removal usually means the site redesigned and the
	// container selector drifted; keep it loud for the operator.
	if len(fresh) == 0 && len(diff.Removed) > 0 {
		log.Warn().
			Int("removed", len(diff.Removed)).
			Msg("Zero candidates this run, all stored listings removed")
	}

	return Result{Site: site.Name, Diff: diff}
}

func (o *Orchestrator) lockFor(siteName string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()

	if l, ok := o.siteLocks[siteName]; ok {
		return l
	}
	l := &sync.Mutex{}
	o.siteLocks[siteName] = l
	return l
}
