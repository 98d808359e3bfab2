package listing

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mkarlsen/rentscout/internal/scraper"
	"mkarlsen/rentscout/logger"
)

var (
	priceRe = regexp.MustCompile(`[^\d.]`)
	bedsRe  = regexp.MustCompile(`(?i)(\d+)\s*(?:bed|bd|br)s?\b`)
	bathsRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:bath|ba)s?\b`)
	sqftRe  = regexp.MustCompile(`(?i)([\d,]+)\s*(?:sq\.?\s*ft|sqft|square\s*feet)`)

	isoDateRe   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	monthDateRe = regexp.MustCompile(`(?i)(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})`)
)

// Normalize turns a raw candidate into a typed Listing for one site.
// Unparseable sub-fields become nil, never zero and never an error;
// normalization cannot fail the pipeline.
func Normalize(c scraper.Candidate, siteName, siteURL string, now time.Time) Listing {
	link := resolveURL(siteURL, c.Link)

	l := Listing{
		ID:        ComputeID(siteName, c.Title, link),
		SiteName:  siteName,
		Title:     c.Title,
		URL:       link,
		Available: true,
		ScrapedAt: now,
	}

	if c.PriceText != "" {
		if l.Price = ParsePrice(c.PriceText); l.Price == nil {
			logger.ForSite(siteName).Warn().
				Str("text", c.PriceText).
				Msg("Unparseable price text")
		}
	}

	l.Bedrooms, l.Bathrooms, l.Sqft = ParseDetails(c.DetailsText)

	if c.AvailabilityText != "" {
		lower := strings.ToLower(c.AvailabilityText)
		l.Available = !strings.Contains(lower, "unavailable") &&
			!strings.Contains(lower, "not available")
		l.MoveInDate = ParseMoveInDate(c.AvailabilityText)
	}

	return l
}

// ParsePrice strips currency decoration from text like "$1,500/mo" and
// returns the numeric value, or nil when nothing numeric remains.
func ParsePrice(text string) *float64 {
	cleaned := priceRe.ReplaceAllString(text, "")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseDetails parses bedroom, bathroom, and square-footage counts from a
// free-text details field such as "1 bed 1 bath 800 sq ft". Each group that
// fails to match stays nil.
func ParseDetails(text string) (beds *int, baths *float64, sqft *int) {
	if text == "" {
		return nil, nil, nil
	}

	if m := bedsRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			beds = &v
		}
	}
	if m := bathsRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			baths = &v
		}
	}
	if m := sqftRe.FindStringSubmatch(text); m != nil {
		cleaned := strings.ReplaceAll(m[1], ",", "")
		if v, err := strconv.Atoi(cleaned); err == nil {
			sqft = &v
		}
	}
	return beds, baths, sqft
}

// ParseMoveInDate finds a move-in date inside free availability text.
// Accepts ISO (2026-03-01) and "Month D, YYYY" forms anywhere in the text;
// returns nil when nothing parses.
func ParseMoveInDate(text string) *time.Time {
	if m := isoDateRe.FindString(text); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return &t
		}
	}

	if m := monthDateRe.FindStringSubmatch(text); m != nil {
		day, err := strconv.Atoi(m[2])
		if err != nil {
			return nil
		}
		year, err := strconv.Atoi(m[3])
		if err != nil {
			return nil
		}
		month := monthFromName(m[1])
		if month == 0 {
			return nil
		}
		t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		return &t
	}

	return nil
}

func monthFromName(name string) time.Month {
	switch strings.ToLower(name[:3]) {
	case "jan":
		return time.January
	case "feb":
		return time.February
	case "mar":
		return time.March
	case "apr":
		return time.April
	case "may":
		return time.May
	case "jun":
		return time.June
	case "jul":
		return time.July
	case "aug":
		return time.August
	case "sep":
		return time.September
	case "oct":
		return time.October
	case "nov":
		return time.November
	case "dec":
		return time.December
	}
	return 0
}

// resolveURL makes a candidate's detail link absolute relative to the site
// URL. The site URL itself is the fallback when the candidate carried none.
func resolveURL(siteURL, link string) string {
	if link == "" {
		return siteURL
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return siteURL
	}
	if parsed.IsAbs() {
		return link
	}

	base, err := url.Parse(siteURL)
	if err != nil {
		return link
	}
	return base.ResolveReference(parsed).String()
}
