package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// busyTimeoutMS is how long a connection waits for another process's write
// lock before giving up with SQLITE_BUSY.
const busyTimeoutMS = 5000

const sqliteUpsert = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// SQLite keeps keys in a single kv table. Updates run in a BEGIN IMMEDIATE
// transaction, which takes the database write lock before the first read.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and migrates) the database at dbPath.
func NewSQLite(dbPath string) (*SQLite, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)", dbPath, busyTimeoutMS)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite locks the whole file anyway.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Get implements KV.
func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	return getRow(s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key), key)
}

// Put implements KV.
func (s *SQLite) Put(ctx context.Context, entries map[string]string) error {
	return s.Update(ctx, putAll(entries))
}

// Update implements KV.
func (s *SQLite) Update(ctx context.Context, fn UpdateFunc) (err error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	// database/sql cannot ask for an immediate transaction, so it is driven
	// by hand on a pinned connection.
	if _, err := conn.ExecContext(ctx, `BEGIN IMMEDIATE`); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			conn.ExecContext(context.Background(), `ROLLBACK`) //nolint:errcheck // the original error wins
		}
	}()

	entries, err := fn(func(key string) (string, bool, error) {
		return getRow(conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key), key)
	})
	if err != nil {
		return err
	}
	for k, v := range entries {
		if _, err = conn.ExecContext(ctx, sqliteUpsert, k, v); err != nil {
			return fmt.Errorf("put %s: %w", k, err)
		}
	}

	if _, err = conn.ExecContext(ctx, `COMMIT`); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close implements KV.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func getRow(row *sql.Row, key string) (string, bool, error) {
	var v string
	err := row.Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}
