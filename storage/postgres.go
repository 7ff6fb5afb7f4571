// Package storage is the optional Postgres sink. Records are upserted by
// listing URL, so repeat runs refresh rows instead of duplicating them.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mudassirfayaz/Kings-Properties/models"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore persists property records into a single properties table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens the pool, verifies connectivity and ensures the
// schema exists. The DSN is a standard libpq connection string.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer schemaCancel()
	if err := store.ensureSchema(schemaCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// SaveRecords upserts the records in one transaction and returns how many
// rows were written. Records without a URL have no upsert key and are
// skipped.
func (s *PostgresStore) SaveRecords(ctx context.Context, records []*models.PropertyRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO properties (
			url, property_id, title, listing_type, for_lease, for_sale,
			location, image_url, pdf_url, description, details,
			page_number, scraped_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (url) DO UPDATE
		SET
			property_id = EXCLUDED.property_id,
			title = EXCLUDED.title,
			listing_type = EXCLUDED.listing_type,
			for_lease = EXCLUDED.for_lease,
			for_sale = EXCLUDED.for_sale,
			location = EXCLUDED.location,
			image_url = EXCLUDED.image_url,
			pdf_url = EXCLUDED.pdf_url,
			description = EXCLUDED.description,
			details = EXCLUDED.details,
			page_number = EXCLUDED.page_number,
			scraped_at = EXCLUDED.scraped_at,
			updated_at = NOW()`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert statement: %w", err)
	}
	defer stmt.Close()

	total := 0
	for _, rec := range records {
		if rec.URL == "" {
			continue
		}

		details := []byte("{}")
		if len(rec.Details) > 0 {
			if details, err = json.Marshal(rec.Details); err != nil {
				return 0, fmt.Errorf("encode details for %q: %w", rec.URL, err)
			}
		}

		if _, err = stmt.ExecContext(
			ctx,
			rec.URL,
			rec.PropertyID,
			rec.Title,
			rec.ListingType,
			rec.ForLease,
			rec.ForSale,
			rec.Location,
			rec.ImageURL,
			rec.PDFURL,
			rec.Description,
			details,
			rec.PageNumber,
			rec.ScrapedAt,
		); err != nil {
			return 0, fmt.Errorf("insert property %q: %w", rec.URL, err)
		}
		total++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return total, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS properties (
			id BIGSERIAL PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			property_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			listing_type TEXT NOT NULL DEFAULT '',
			for_lease BOOLEAN NOT NULL DEFAULT FALSE,
			for_sale BOOLEAN NOT NULL DEFAULT FALSE,
			location TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			pdf_url TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			details JSONB NOT NULL DEFAULT '{}',
			page_number INT NOT NULL DEFAULT 0,
			scraped_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_properties_listing_type ON properties(listing_type);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
