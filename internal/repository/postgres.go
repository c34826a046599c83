package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Backend = (*PostgresBackend)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS ledger_collections (
	name TEXT PRIMARY KEY,
	body JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// PostgresBackend keeps one row per collection with the blob in a JSONB column.
type PostgresBackend struct {
	db *pgxpool.Pool
}

// NewPostgresBackend ensures the collections table exists.
func NewPostgresBackend(ctx context.Context, db *pgxpool.Pool) (*PostgresBackend, error) {
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("ensure ledger_collections table: %w", err)
	}
	return &PostgresBackend{db: db}, nil
}

func (b *PostgresBackend) Load(ctx context.Context, collection string) ([]byte, error) {
	var body []byte
	err := b.db.QueryRow(ctx, `SELECT body FROM ledger_collections WHERE name = $1`, collection).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return body, err
}

func (b *PostgresBackend) Save(ctx context.Context, collection string, body []byte) error {
	_, err := b.db.Exec(ctx, `
		INSERT INTO ledger_collections (name, body, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`,
		collection, body)
	return err
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.db.Ping(ctx)
}

func (b *PostgresBackend) Close() error {
	b.db.Close()
	return nil
}
