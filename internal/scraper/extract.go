package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mkarlsen/rentscout/config"
)

// ExtractCandidates pulls one candidate per container match from the
// document. A page with zero container matches yields an empty slice, not an
// error: selector drift is indistinguishable from a genuinely empty listing
// page and is surfaced downstream as a large removal count.
func ExtractCandidates(doc *goquery.Document, sel config.Selectors) []Candidate {
	var candidates []Candidate

	doc.Find(sel.Container).Each(func(i int, s *goquery.Selection) {
		c := extractCandidate(s, sel)
		// A candidate without a title cannot carry an identity
		if c.Title == "" {
			return
		}
		candidates = append(candidates, c)
	})

	return candidates
}

// extractCandidate reads each configured selector inside one container.
// Missing selectors yield empty fields; partial listings are valid.
func extractCandidate(s *goquery.Selection, sel config.Selectors) Candidate {
	return Candidate{
		Title:            selectText(s, sel.Title),
		Link:             selectAttr(s, sel.Link, "href"),
		PriceText:        selectText(s, sel.Price),
		DetailsText:      selectText(s, sel.Details),
		AvailabilityText: selectText(s, sel.Availability),
	}
}

func selectText(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(s.Find(selector).First().Text())
}

func selectAttr(s *goquery.Selection, selector, attr string) string {
	if selector == "" {
		return ""
	}
	val, _ := s.Find(selector).First().Attr(attr)
	return strings.TrimSpace(val)
}
