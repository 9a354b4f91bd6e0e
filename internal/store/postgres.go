package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS pocketmoney_kv (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// postgresLockKey identifies the advisory lock guarding ledger updates.
const postgresLockKey int64 = 0x706d6b76 // "pmkv"

// Postgres keeps keys in the pocketmoney_kv table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn and ensures the table exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres store: dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Get implements KV.
func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	return getPgRow(p.pool.QueryRow(ctx, `SELECT value FROM pocketmoney_kv WHERE key = $1`, key), key)
}

// Put implements KV.
func (p *Postgres) Put(ctx context.Context, entries map[string]string) error {
	return p.Update(ctx, putAll(entries))
}

// Update implements KV. The transaction takes a transaction-scoped advisory
// lock first, so concurrent updates from any client run one after another.
func (p *Postgres) Update(ctx context.Context, fn UpdateFunc) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, postgresLockKey); err != nil {
			return fmt.Errorf("lock ledger: %w", err)
		}

		entries, err := fn(func(key string) (string, bool, error) {
			return getPgRow(tx.QueryRow(ctx, `SELECT value FROM pocketmoney_kv WHERE key = $1`, key), key)
		})
		if err != nil {
			return err
		}
		for k, v := range entries {
			_, err := tx.Exec(ctx,
				`INSERT INTO pocketmoney_kv (key, value, updated_at) VALUES ($1, $2, now())
				 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
				k, v)
			if err != nil {
				return fmt.Errorf("put %s: %w", k, err)
			}
		}
		return nil
	})
}

// Close implements KV.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func getPgRow(row pgx.Row, key string) (string, bool, error) {
	var v string
	err := row.Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}
