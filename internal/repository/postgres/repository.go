// Package postgres implements the remote store contract with relational
// upserts. It satisfies the same three-method surface as the document
// backend; the resolver cannot tell the two apart.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/katwe/bakeledger/internal/domain/models"
)

const schema = `CREATE TABLE IF NOT EXISTS daily_records (
	site_id     TEXT        NOT NULL,
	record_date TEXT        NOT NULL,
	payload     TEXT        NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (site_id, record_date)
)`

// Repository is the Postgres-backed remote store.
type Repository struct {
	db *sql.DB
}

// NewRepository opens a connection pool with the provided DSN, verifies
// connectivity and ensures the records table exists.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create daily_records table: %w", err)
	}
	return &Repository{db: db}, nil
}

// GetByKey fetches the encoded record for the exact (site, date) key.
// A missing row returns (nil, nil).
func (r *Repository) GetByKey(ctx context.Context, siteID, date string) ([]byte, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM daily_records WHERE site_id = $1 AND record_date = $2`,
		siteID, date).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select daily record %s/%s: %w", siteID, date, err)
	}
	return []byte(payload), nil
}

// Upsert writes the record for (site, date), last write wins.
func (r *Repository) Upsert(ctx context.Context, siteID, date string, payload []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO daily_records (site_id, record_date, payload, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (site_id, record_date)
		 DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		siteID, date, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert daily record %s/%s: %w", siteID, date, err)
	}
	return nil
}

// QueryRange returns every stored row for the site between startDate and
// endDate inclusive, newest first.
func (r *Repository) QueryRange(ctx context.Context, siteID, startDate, endDate string) ([]models.StoredDoc, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT record_date, payload FROM daily_records
		 WHERE site_id = $1 AND record_date BETWEEN $2 AND $3
		 ORDER BY record_date DESC`,
		siteID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("query daily records %s [%s..%s]: %w", siteID, startDate, endDate, err)
	}
	defer func() { _ = rows.Close() }()

	var docs []models.StoredDoc
	for rows.Next() {
		var date, payload string
		if err := rows.Scan(&date, &payload); err != nil {
			return nil, fmt.Errorf("scan range row: %w", err)
		}
		docs = append(docs, models.StoredDoc{Date: date, Payload: []byte(payload)})
	}
	return docs, rows.Err()
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}
