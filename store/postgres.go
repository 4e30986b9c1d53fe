package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prathamesonar/signature-engine/integrity"
)

const schema = `
CREATE TABLE IF NOT EXISTS pdf_records (
	id            UUID PRIMARY KEY,
	original_hash TEXT NOT NULL,
	final_hash    TEXT NOT NULL,
	file_name     TEXT NOT NULL,
	fields_count  INTEGER NOT NULL,
	seal          BYTEA,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres stores records in the pdf_records table.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect opens a pool for url and creates the table if needed.
func Connect(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	p := NewPostgres(pool)
	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the pdf_records table.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create pdf_records: %w", err)
	}
	return nil
}

func (p *Postgres) Record(ctx context.Context, r integrity.Record) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO pdf_records (id, original_hash, final_hash, file_name, fields_count, seal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.OriginalHash, r.FinalHash, r.FileName, r.FieldsCount, r.Seal, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert record %s: %w", r.ID, err)
	}
	return nil
}

// Get loads the record with the given id. Ids that are not UUIDs cannot
// exist in the table and yield ErrNotFound without a query.
func (p *Postgres) Get(ctx context.Context, id string) (integrity.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return integrity.Record{}, ErrNotFound
	}

	var r integrity.Record
	err := p.pool.QueryRow(ctx, `
		SELECT id::text, original_hash, final_hash, file_name, fields_count, seal, created_at
		FROM pdf_records WHERE id = $1`, id).
		Scan(&r.ID, &r.OriginalHash, &r.FinalHash, &r.FileName, &r.FieldsCount, &r.Seal, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return integrity.Record{}, ErrNotFound
	}
	if err != nil {
		return integrity.Record{}, fmt.Errorf("failed to load record %s: %w", id, err)
	}
	return r, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
