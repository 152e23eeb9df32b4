package errcount

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS domain_error_counts (
	domain     TEXT PRIMARY KEY,
	failures   INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	selectCountsSQL = `SELECT domain, failures FROM domain_error_counts`
	upsertCountSQL  = `INSERT INTO domain_error_counts (domain, failures, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (domain) DO UPDATE SET failures = EXCLUDED.failures, updated_at = NOW()`
)

// PostgresStore keeps the counters in the domain_error_counts table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects and makes sure the table exists.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create domain_error_counts: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Load(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, selectCountsSQL)
	if err != nil {
		return nil, fmt.Errorf("query domain_error_counts: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			domain   string
			failures int
		)
		if err := rows.Scan(&domain, &failures); err != nil {
			return nil, fmt.Errorf("scan domain_error_counts: %w", err)
		}
		if failures < 0 {
			failures = 0
		}
		counts[domain] = failures
	}
	return counts, rows.Err()
}

func (s *PostgresStore) Save(ctx context.Context, counts map[string]int) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for domain, n := range counts {
		batch.Queue(upsertCountSQL, domain, n)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert domain_error_counts: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
