package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mkarlsen/rentscout/config"
	"mkarlsen/rentscout/internal/scraper"
	apperrors "mkarlsen/rentscout/pkg/errors"
	"mkarlsen/rentscout/services/store"
)

// fakeScraper returns canned candidates or a canned error
type fakeScraper struct {
	site       string
	candidates []scraper.Candidate
	err        error

	mu      sync.Mutex
	active  int
	overlap bool
	calls   atomic.Int32
}

func (f *fakeScraper) Scrape(ctx context.Context) ([]scraper.Candidate, error) {
	f.calls.Add(1)

	f.mu.Lock()
	f.active++
	if f.active > 1 {
		f.overlap = true
	}
	f.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	f.mu.Lock()
	f.active--
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

func (f *fakeScraper) Site() string { return f.site }

func testSites() []config.Site {
	return []config.Site{
		{Name: "maple-court", URL: "https://example.com/a", ScraperType: config.ScraperStatic, Selectors: config.Selectors{Container: ".x"}},
		{Name: "riverside", URL: "https://example.com/b", ScraperType: config.ScraperStatic, Selectors: config.Selectors{Container: ".x"}},
	}
}

func TestRunAllFailureIsolation(t *testing.T) {
	sites := testSites()
	scrapers := map[string]scraper.Scraper{
		"maple-court": &fakeScraper{
			site:       "maple-court",
			candidates: []scraper.Candidate{{Title: "Unit 4B", Link: "/4b"}},
		},
		"riverside": &fakeScraper{
			site: "riverside",
			err:  apperrors.NewFetch("riverside", "fetch failed", nil),
		},
	}

	o := New(sites, scrapers, store.NewMemoryStore())
	results := o.RunAll(context.Background())
	require.Len(t, results, 2)

	ok := results["maple-court"]
	assert.Nil(t, ok.Err)
	assert.Len(t, ok.Diff.New, 1)

	failed := results["riverside"]
	require.NotNil(t, failed.Err)
	assert.Equal(t, apperrors.KindFetch, failed.Err.Kind)
	assert.Empty(t, failed.Diff.New)
}

func TestFailedScrapeLeavesSnapshotUntouched(t *testing.T) {
	sites := testSites()
	st := store.NewMemoryStore()
	fs := &fakeScraper{
		site:       "maple-court",
		candidates: []scraper.Candidate{{Title: "Unit 4B", Link: "/4b"}},
	}
	o := New(sites, map[string]scraper.Scraper{"maple-court": fs}, st)

	res := o.RunSite(context.Background(), "maple-court")
	require.Nil(t, res.Err)
	require.Len(t, res.Diff.New, 1)

	// The site starts failing: stored listings must survive untouched
	fs.err = apperrors.NewFetch("maple-court", "fetch failed", nil)
	res = o.RunSite(context.Background(), "maple-court")
	require.NotNil(t, res.Err)

	stored, err := st.ListBySite(context.Background(), "maple-court")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRunSiteUnknown(t *testing.T) {
	o := New(testSites(), map[string]scraper.Scraper{}, store.NewMemoryStore())

	res := o.RunSite(context.Background(), "nowhere")
	require.NotNil(t, res.Err)
	assert.Equal(t, apperrors.KindUnknownSite, res.Err.Kind)
}

func TestRunSiteCaseInsensitive(t *testing.T) {
	sites := testSites()
	scrapers := map[string]scraper.Scraper{
		"maple-court": &fakeScraper{site: "maple-court"},
	}
	o := New(sites, scrapers, store.NewMemoryStore())

	res := o.RunSite(context.Background(), "Maple-Court")
	assert.Nil(t, res.Err)
	assert.Equal(t, "maple-court", res.Site)
}

func TestSameSiteRunsSerialize(t *testing.T) {
	sites := testSites()
	fs := &fakeScraper{site: "maple-court"}
	o := New(sites, map[string]scraper.Scraper{"maple-court": fs}, store.NewMemoryStore())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.RunSite(context.Background(), "maple-court")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(4), fs.calls.Load())
	assert.False(t, fs.overlap, "concurrent triggers for the same site must queue")
}
