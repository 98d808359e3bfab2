package listing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Listing is the canonical, identity-bearing record for one rental unit at
// one site.
type Listing struct {
	ID         string     `json:"id"`
	SiteName   string     `json:"site_name"`
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	Price      *float64   `json:"price,omitempty"`
	Bedrooms   *int       `json:"bedrooms,omitempty"`
	Bathrooms  *float64   `json:"bathrooms,omitempty"`
	Sqft       *int       `json:"sqft,omitempty"`
	Available  bool       `json:"available"`
	MoveInDate *time.Time `json:"move_in_date,omitempty"`
	ScrapedAt  time.Time  `json:"scraped_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ComputeID derives the stable identity key for a listing. It hashes only
// the immutable triple (site name, title, url), so price or availability
// changes never mint a new identity.
func ComputeID(siteName, title, url string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", siteName, title, url)))
	return hex.EncodeToString(sum[:])[:16]
}

// DiffResult is the outcome of reconciling one site's fresh scrape against
// the stored snapshot.
type DiffResult struct {
	New     []Listing `json:"new"`
	Removed []Listing `json:"removed"`
}
