// Package store persists the ledger's two values, the transaction snapshot
// and the running balance, in a durable key-value store.
package store

import (
	"context"
	"fmt"
)

// Getter reads one key inside an Update.
type Getter func(key string) (value string, ok bool, err error)

// UpdateFunc reads through get and returns the entries to write. Returning
// an error or no entries writes nothing.
type UpdateFunc func(get Getter) (map[string]string, error)

// KV is a minimal durable key-value store.
//
// Put must apply all entries or none: the ledger relies on it to commit the
// snapshot and the balance together.
//
// Update runs fn under the store's exclusive write lock. The lock is held
// across processes sharing the store, so every read fn makes and the write
// that follows see no other writer in between. fn must read through get,
// never through Get.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, entries map[string]string) error
	Update(ctx context.Context, fn UpdateFunc) error
	Close() error
}

func putAll(entries map[string]string) UpdateFunc {
	return func(Getter) (map[string]string, error) { return entries, nil }
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Path    string // file and sqlite backends
	DSN     string // postgres backend
}

// Open returns the KV described by opts.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile, "":
		return NewFile(opts.Path)
	case BackendSQLite:
		return NewSQLite(opts.Path)
	case BackendPostgres:
		return NewPostgres(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
