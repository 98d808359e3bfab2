package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"mkarlsen/rentscout/internal/listing"
	"mkarlsen/rentscout/logger"
	apperrors "mkarlsen/rentscout/pkg/errors"
)

// PostgresStore implements Store on PostgreSQL. Every reconcile runs inside
// a single transaction with the site's rows locked, so a crash mid-cycle can
// never leave a mixed-state snapshot.
type PostgresStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewPostgresStore opens a connection, runs schema migrations, and returns a
// ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	s := &PostgresStore{db: db, log: logger.ForStore()}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return s, nil
}

func (s *PostgresStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id           TEXT        PRIMARY KEY,
			site_name    TEXT        NOT NULL,
			title        TEXT        NOT NULL,
			url          TEXT        NOT NULL,
			price        NUMERIC(10,2),
			bedrooms     INTEGER,
			bathrooms    NUMERIC(4,1),
			sqft         INTEGER,
			available    BOOLEAN     NOT NULL DEFAULT TRUE,
			move_in_date DATE,
			scraped_at   TIMESTAMPTZ NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_site    ON listings(site_name);
		CREATE INDEX IF NOT EXISTS idx_listings_scraped ON listings(scraped_at);
	`)
	return err
}

// Reconcile runs one site's scrape cycle as a single transaction
func (s *PostgresStore) Reconcile(ctx context.Context, siteName string, fresh []listing.Listing, now time.Time) (listing.DiffResult, error) {
	var diff listing.DiffResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return diff, apperrors.NewStore(siteName, "begin reconcile transaction", err)
	}
	defer tx.Rollback()

	// Lock the site's rows for the whole cycle. Reconciles for different
	// sites touch disjoint row sets and proceed independently.
	current, err := s.loadSiteRows(ctx, tx, siteName)
	if err != nil {
		return diff, apperrors.NewStore(siteName, "load current snapshot", err)
	}

	for _, f := range fresh {
		if _, ok := current[f.ID]; ok {
			if err := s.updateListing(ctx, tx, f, now); err != nil {
				return diff, apperrors.NewStore(siteName, "update listing", err)
			}
			delete(current, f.ID)
			continue
		}

		f.CreatedAt = now
		f.ScrapedAt = now
		if err := s.insertListing(ctx, tx, f); err != nil {
			return diff, apperrors.NewStore(siteName, "insert listing", err)
		}
		diff.New = append(diff.New, f)
	}

	if len(current) > 0 {
		staleIDs := make([]string, 0, len(current))
		for id, stale := range current {
			staleIDs = append(staleIDs, id)
			diff.Removed = append(diff.Removed, stale)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM listings WHERE id = ANY($1)`, pq.Array(staleIDs)); err != nil {
			return diff, apperrors.NewStore(siteName, "delete stale listings", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return listing.DiffResult{}, apperrors.NewStore(siteName, "commit reconcile", err)
	}

	return diff, nil
}

func (s *PostgresStore) loadSiteRows(ctx context.Context, tx *sql.Tx, siteName string) (map[string]listing.Listing, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, site_name, title, url, price, bedrooms, bathrooms, sqft,
		       available, move_in_date, scraped_at, created_at
		FROM listings
		WHERE site_name = $1
		FOR UPDATE
	`, siteName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	current := make(map[string]listing.Listing)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		current[l.ID] = l
	}
	return current, rows.Err()
}

func (s *PostgresStore) insertListing(ctx context.Context, tx *sql.Tx, l listing.Listing) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO listings
			(id, site_name, title, url, price, bedrooms, bathrooms, sqft,
			 available, move_in_date, scraped_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		l.ID, l.SiteName, l.Title, l.URL,
		nullFloat(l.Price), nullInt(l.Bedrooms), nullFloat(l.Bathrooms), nullInt(l.Sqft),
		l.Available, nullTime(l.MoveInDate), l.ScrapedAt, l.CreatedAt,
	)
	return err
}

func (s *PostgresStore) updateListing(ctx context.Context, tx *sql.Tx, l listing.Listing, now time.Time) error {
	// created_at is immutable; id identifies the row
	_, err := tx.ExecContext(ctx, `
		UPDATE listings SET
			price = $2, bedrooms = $3, bathrooms = $4, sqft = $5,
			available = $6, move_in_date = $7, scraped_at = $8
		WHERE id = $1
	`,
		l.ID,
		nullFloat(l.Price), nullInt(l.Bedrooms), nullFloat(l.Bathrooms), nullInt(l.Sqft),
		l.Available, nullTime(l.MoveInDate), now,
	)
	return err
}

// GetListing looks up a listing by id
func (s *PostgresStore) GetListing(ctx context.Context, id string) (*listing.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, site_name, title, url, price, bedrooms, bathrooms, sqft,
		       available, move_in_date, scraped_at, created_at
		FROM listings
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	l, err := scanListing(rows)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListBySite returns all stored listings for a site
func (s *PostgresStore) ListBySite(ctx context.Context, siteName string) ([]listing.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, site_name, title, url, price, bedrooms, bathrooms, sqft,
		       available, move_in_date, scraped_at, created_at
		FROM listings
		WHERE site_name = $1
		ORDER BY id
	`, siteName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []listing.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CountListings returns the total number of stored listings
func (s *PostgresStore) CountListings(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&count)
	return count, err
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func scanListing(rows *sql.Rows) (listing.Listing, error) {
	var (
		l        listing.Listing
		price    sql.NullFloat64
		bedrooms sql.NullInt64
		baths    sql.NullFloat64
		sqft     sql.NullInt64
		moveIn   sql.NullTime
	)

	if err := rows.Scan(
		&l.ID, &l.SiteName, &l.Title, &l.URL,
		&price, &bedrooms, &baths, &sqft,
		&l.Available, &moveIn, &l.ScrapedAt, &l.CreatedAt,
	); err != nil {
		return l, err
	}

	if price.Valid {
		l.Price = &price.Float64
	}
	if bedrooms.Valid {
		v := int(bedrooms.Int64)
		l.Bedrooms = &v
	}
	if baths.Valid {
		l.Bathrooms = &baths.Float64
	}
	if sqft.Valid {
		v := int(sqft.Int64)
		l.Sqft = &v
	}
	if moveIn.Valid {
		l.MoveInDate = &moveIn.Time
	}

	return l, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
