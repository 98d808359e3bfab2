package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"mkarlsen/rentscout/internal/listing"
)

// MemoryStore implements Store with an in-process map. The whole reconcile
// happens under one mutex hold, so per-site atomicity is trivially satisfied.
// Used for tests and deployments that can afford to lose the snapshot on
// restart (the next daily run rebuilds it).
type MemoryStore struct {
	mu       sync.Mutex
	listings map[string]listing.Listing
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings: make(map[string]listing.Listing),
	}
}

// Reconcile applies one site's scrape cycle as a single batch
func (m *MemoryStore) Reconcile(ctx context.Context, siteName string, fresh []listing.Listing, now time.Time) (listing.DiffResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := make(map[string]listing.Listing)
	for id, l := range m.listings {
		if l.SiteName == siteName {
			current[id] = l
		}
	}

	var diff listing.DiffResult
	for _, f := range fresh {
		prev, ok := current[f.ID]
		if !ok {
			f.CreatedAt = now
			f.ScrapedAt = now
			m.listings[f.ID] = f
			diff.New = append(diff.New, f)
			continue
		}
		// Existing row: refresh mutable fields, keep created_at
		f.CreatedAt = prev.CreatedAt
		f.ScrapedAt = now
		m.listings[f.ID] = f
		delete(current, f.ID)
	}

	// Whatever the fresh set did not match is gone
	for id, stale := range current {
		diff.Removed = append(diff.Removed, stale)
		delete(m.listings, id)
	}
	sortByID(diff.Removed)

	return diff, nil
}

// GetListing looks up a listing by id
func (m *MemoryStore) GetListing(ctx context.Context, id string) (*listing.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.listings[id]; ok {
		return &l, nil
	}
	return nil, nil
}

// ListBySite returns all stored listings for a site
func (m *MemoryStore) ListBySite(ctx context.Context, siteName string) ([]listing.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []listing.Listing
	for _, l := range m.listings {
		if l.SiteName == siteName {
			out = append(out, l)
		}
	}
	sortByID(out)
	return out, nil
}

// CountListings returns the total number of stored listings
func (m *MemoryStore) CountListings(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listings), nil
}

// Close is a no-op for the memory store
func (m *MemoryStore) Close() error {
	return nil
}

func sortByID(ls []listing.Listing) {
	sort.Slice(ls, func(i, j int) bool { return ls[i].ID < ls[j].ID })
}
