package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSitesYAML = `
sites:
  - name: maple-court
    url: https://example.com/availability
    scraper_type: static
    selectors:
      container: ".unit-card"
      title: "h3.unit-name"
      price: ".unit-price"
      details: ".unit-specs"
      availability: ".unit-availability"
      link: "a.unit-link"
  - name: riverside-flats
    url: https://example.com/floorplans
    scraper_type: interactive
    wait_for: ".floorplan-grid"
    click_each:
      selector: ".expand-toggle"
      wait_after: 1500
    selectors:
      container: ".floorplan-card"
      title: ".floorplan-title"
`

func TestParseSites(t *testing.T) {
	sites, err := ParseSites([]byte(validSitesYAML))
	require.NoError(t, err)
	require.Len(t, sites, 2)

	assert.Equal(t, "maple-court", sites[0].Name)
	assert.Equal(t, ScraperStatic, sites[0].ScraperType)
	assert.Equal(t, ".unit-card", sites[0].Selectors.Container)
	assert.Nil(t, sites[0].ClickEach)

	assert.Equal(t, ScraperInteractive, sites[1].ScraperType)
	assert.Equal(t, ".floorplan-grid", sites[1].WaitFor)
	require.NotNil(t, sites[1].ClickEach)
	assert.Equal(t, ".expand-toggle", sites[1].ClickEach.Selector)
	assert.Equal(t, 1500*time.Millisecond, sites[1].ClickEach.WaitAfter())
}

func TestParseSitesDefaultsToStatic(t *testing.T) {
	yaml := `
sites:
  - name: plain
    url: https://example.com
    selectors:
      container: ".row"
`
	sites, err := ParseSites([]byte(yaml))
	require.NoError(t, err)
	assert.Equal(t, ScraperStatic, sites[0].ScraperType)
}

func TestParseSitesValidation(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{
			name: "missing name",
			yaml: "sites:\n  - url: https://example.com\n    selectors:\n      container: .x\n",
		},
		{
			name: "missing url",
			yaml: "sites:\n  - name: a\n    selectors:\n      container: .x\n",
		},
		{
			name: "unknown scraper type",
			yaml: "sites:\n  - name: a\n    url: https://example.com\n    scraper_type: quantum\n    selectors:\n      container: .x\n",
		},
		{
			name: "missing container selector",
			yaml: "sites:\n  - name: a\n    url: https://example.com\n",
		},
		{
			name: "duplicate names",
			yaml: "sites:\n  - name: a\n    url: https://example.com\n    selectors:\n      container: .x\n  - name: A\n    url: https://example.com\n    selectors:\n      container: .x\n",
		},
		{
			name: "click_each on static site",
			yaml: "sites:\n  - name: a\n    url: https://example.com\n    click_each:\n      selector: .btn\n    selectors:\n      container: .x\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSites([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestFindSite(t *testing.T) {
	sites, err := ParseSites([]byte(validSitesYAML))
	require.NoError(t, err)

	s, ok := FindSite(sites, "Maple-Court")
	assert.True(t, ok)
	assert.Equal(t, "maple-court", s.Name)

	_, ok = FindSite(sites, "nowhere")
	assert.False(t, ok)
}

func TestClickSpecWaitAfterDefault(t *testing.T) {
	spec := &ClickSpec{Selector: ".btn"}
	assert.Equal(t, 2*time.Second, spec.WaitAfter())
}
