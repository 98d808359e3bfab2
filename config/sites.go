package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "mkarlsen/rentscout/pkg/errors"
)

// Scraper variants a site may declare.
const (
	ScraperStatic      = "static"
	ScraperInteractive = "interactive"
)

// Selectors contains the CSS selectors used to extract listing fields
type Selectors struct {
	Container    string `yaml:"container"`
	Title        string `yaml:"title"`
	Price        string `yaml:"price"`
	Details      string `yaml:"details"`
	Availability string `yaml:"availability"`
	Link         string `yaml:"link"`
}

// ClickSpec describes elements that must be clicked to reveal listing content
// (interactive scraper only).
type ClickSpec struct {
	Selector    string `yaml:"selector"`
	WaitAfterMs int    `yaml:"wait_after"`
}

// WaitAfter returns the post-click delay as a duration, defaulting to two
// seconds when unset.
func (c *ClickSpec) WaitAfter() time.Duration {
	if c.WaitAfterMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.WaitAfterMs) * time.Millisecond
}

// Site is the immutable configuration for a single rental-listing source
type Site struct {
	Name        string     `yaml:"name"`
	URL         string     `yaml:"url"`
	ScraperType string     `yaml:"scraper_type"`
	Selectors   Selectors  `yaml:"selectors"`
	WaitFor     string     `yaml:"wait_for"`
	ClickEach   *ClickSpec `yaml:"click_each"`
}

type sitesFile struct {
	Sites []Site `yaml:"sites"`
}

// LoadSites reads and validates the site definitions from a YAML file.
// Invalid configurations are rejected here and never reach the pipeline.
func LoadSites(path string) ([]Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfiguration(fmt.Sprintf("read sites file %s", path), err)
	}
	return ParseSites(data)
}

// ParseSites parses and validates raw YAML site definitions
func ParseSites(data []byte) ([]Site, error) {
	var f sitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperrors.NewConfiguration("parse sites yaml", err)
	}

	seen := make(map[string]bool, len(f.Sites))
	for i := range f.Sites {
		s := &f.Sites[i]
		if s.ScraperType == "" {
			s.ScraperType = ScraperStatic
		}
		if err := s.validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(s.Name)
		if seen[key] {
			return nil, apperrors.NewConfiguration(fmt.Sprintf("duplicate site name %q", s.Name), nil)
		}
		seen[key] = true
	}

	return f.Sites, nil
}

func (s *Site) validate() error {
	if s.Name == "" {
		return apperrors.NewConfiguration("site name is required", nil)
	}
	if s.URL == "" {
		return apperrors.NewConfiguration(fmt.Sprintf("site %q: url is required", s.Name), nil)
	}
	if s.ScraperType != ScraperStatic && s.ScraperType != ScraperInteractive {
		return apperrors.NewConfiguration(
			fmt.Sprintf("site %q: unknown scraper_type %q", s.Name, s.ScraperType), nil)
	}
	if s.Selectors.Container == "" {
		return apperrors.NewConfiguration(
			fmt.Sprintf("site %q: selectors.container is required", s.Name), nil)
	}
	if s.ClickEach != nil && s.ClickEach.Selector == "" {
		return apperrors.NewConfiguration(
			fmt.Sprintf("site %q: click_each.selector is required", s.Name), nil)
	}
	if s.ClickEach != nil && s.ScraperType != ScraperInteractive {
		return apperrors.NewConfiguration(
			fmt.Sprintf("site %q: click_each needs scraper_type interactive", s.Name), nil)
	}
	return nil
}

// FindSite returns the site with the given name, matched case-insensitively
func FindSite(sites []Site, name string) (Site, bool) {
	for _, s := range sites {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Site{}, false
}

// SiteNames returns the configured names in declaration order
func SiteNames(sites []Site) []string {
	names := make([]string, len(sites))
	for i, s := range sites {
		names[i] = s.Name
	}
	return names
}
