package store

import (
	"context"
	"time"

	"mkarlsen/rentscout/internal/listing"
)

// Store persists the latest known set of listings per site and computes the
// diff against each fresh scrape. Implementations must guarantee primary-key
// uniqueness on the listing id and atomic per-site reconciles: either every
// insert/update/delete of a cycle commits, or none do.
type Store interface {
	// Reconcile upserts the freshly scraped listings for one site and
	// deletes rows the fresh set no longer contains. New rows get
	// created_at = now; existing rows keep created_at and refresh their
	// mutable fields and scraped_at.
	Reconcile(ctx context.Context, siteName string, fresh []listing.Listing, now time.Time) (listing.DiffResult, error)

	// GetListing looks up a single listing by id; nil when absent
	GetListing(ctx context.Context, id string) (*listing.Listing, error)

	// ListBySite returns all stored listings for a site
	ListBySite(ctx context.Context, siteName string) ([]listing.Listing, error)

	// CountListings returns the total number of stored listings
	CountListings(ctx context.Context) (int, error)

	// Close releases the underlying resources
	Close() error
}
