package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

// PostgresRepository stores documents as jsonb rows keyed by collection name
type PostgresRepository struct {
	db    *sql.DB
	table string
}

// NewPostgresRepository wraps an open database handle. table is quoted, so any
// identifier is safe.
func NewPostgresRepository(db *sql.DB, table string) *PostgresRepository {
	return &PostgresRepository{
		db:    db,
		table: pq.QuoteIdentifier(table),
	}
}

// EnsureSchema creates the documents table if it does not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			document   JSONB,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, r.table))
	if err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

// Load reads the document for key
func (r *PostgresRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var doc pqtype.NullRawMessage
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT document FROM %s WHERE key = $1`, r.table), key,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if !doc.Valid {
		return nil, ErrNotFound
	}
	return doc.RawMessage, nil
}

// Save upserts the document for key
func (r *PostgresRepository) Save(ctx context.Context, key string, document []byte) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (key, document, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`, r.table),
		key, pqtype.NullRawMessage{RawMessage: document, Valid: len(document) > 0},
	)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// Close closes the database handle
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Ping checks that the database is reachable
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
