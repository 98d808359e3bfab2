package scraper

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"mkarlsen/rentscout/config"
	apperrors "mkarlsen/rentscout/pkg/errors"
)

// clickDriver performs the DOM operations of the click-each loop: resolve
// the click targets once, then click one target and wait for it to settle.
type clickDriver interface {
	ResolveTargets(ctx context.Context, selector string) ([]*cdp.Node, error)
	ClickTarget(ctx context.Context, node *cdp.Node, settle time.Duration) error
}

// chromedpClickDriver is the production clickDriver, bound to the scrape's
// browser context.
type chromedpClickDriver struct{}

func (chromedpClickDriver) ResolveTargets(ctx context.Context, selector string) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	// AtLeast(0): a selector matching nothing this run means zero clicks,
	// not a block until the render deadline expires.
	err := chromedp.Run(ctx,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	return nodes, err
}

func (chromedpClickDriver) ClickTarget(ctx context.Context, node *cdp.Node, settle time.Duration) error {
	return chromedp.Run(ctx,
		chromedp.MouseClickNode(node),
		chromedp.Sleep(settle),
	)
}

// InteractiveScraper handles sites that need script execution, and possibly
// simulated clicks, before their listings exist in the DOM. Each scrape owns
// an exclusive browser context; nothing is shared across concurrent site
// scrapes, so cookies and DOM state cannot bleed between sites.
type InteractiveScraper struct {
	baseScraper
	timeout time.Duration
	clicks  clickDriver
}

// NewInteractive creates an interactive scraper for the given site
func NewInteractive(site config.Site, opts Options) *InteractiveScraper {
	timeout := opts.RenderTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &InteractiveScraper{
		baseScraper: newBase(site, opts),
		timeout:     timeout,
		clicks:      chromedpClickDriver{},
	}
}

// Scrape renders the page, performs any configured interactions, and
// extracts candidates from the settled DOM.
func (s *InteractiveScraper) Scrape(ctx context.Context) ([]Candidate, error) {
	if err := s.checkRateLimit(); err != nil {
		return nil, err
	}

	html, err := s.render(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, apperrors.NewFetch(s.site.Name, "rendered html parse failed", err)
	}

	candidates := ExtractCandidates(doc, s.site.Selectors)
	s.log.Debug().Int("candidates", len(candidates)).Msg("Interactive scrape complete")
	return candidates, nil
}

// render drives a headless browser session through navigate, ready-wait, and
// click-each, then captures the materialized DOM. The allocator and browser
// context are torn down on every path out of this function.
func (s *InteractiveScraper) render(ctx context.Context) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, s.timeout)
	defer cancelRun()

	tasks := chromedp.Tasks{chromedp.Navigate(s.site.URL)}
	if s.site.WaitFor != "" {
		tasks = append(tasks, chromedp.WaitVisible(s.site.WaitFor, chromedp.ByQuery))
	}

	if err := chromedp.Run(runCtx, tasks); err != nil {
		return "", s.renderError("navigate", err)
	}

	if s.site.ClickEach != nil {
		s.clickEach(runCtx)
	}

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", s.renderError("capture dom", err)
	}

	return html, nil
}

// clickEach resolves all click targets once, then clicks each in turn with
// the configured settle delay. A click is best-effort per element: targets
// that vanished after an earlier click (closing accordions and the like) are
// skipped without aborting the rest. Zero matched targets means zero clicks
// and normal extraction.
func (s *InteractiveScraper) clickEach(ctx context.Context) {
	spec := s.site.ClickEach

	nodes, err := s.clicks.ResolveTargets(ctx, spec.Selector)
	if err != nil {
		s.log.Warn().Err(err).Str("selector", spec.Selector).Msg("Click target resolution failed")
		return
	}
	if len(nodes) == 0 {
		s.log.Debug().Str("selector", spec.Selector).Msg("No click targets this run")
		return
	}

	s.log.Debug().Int("targets", len(nodes)).Str("selector", spec.Selector).Msg("Clicking through elements")

	for i, node := range nodes {
		if err := s.clicks.ClickTarget(ctx, node, spec.WaitAfter()); err != nil {
			s.log.Warn().Err(err).Int("index", i).Msg("Click failed, continuing")
		}
	}
}

// renderError maps a chromedp failure to the typed taxonomy: deadline
// overruns become render timeouts, everything else a fetch failure.
func (s *InteractiveScraper) renderError(stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewRenderTimeout(s.site.Name, stage+" timed out", err)
	}
	return apperrors.NewFetch(s.site.Name, stage+" failed", err)
}
