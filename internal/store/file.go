package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 20 * time.Millisecond

// File keeps every key in one JSON document on disk. Writes go to a temp
// file that is renamed over the original, so a Put is all-or-nothing.
// Updates hold an flock on a sibling .lock file, which other processes
// opening the same path also take.
type File struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

// NewFile returns a File store at path, creating its directory.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("file store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}
	return &File{path: path, lock: flock.New(LockPath(path))}, nil
}

// LockPath returns the lock file used for the store at path.
func LockPath(path string) string { return path + ".lock" }

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

// Get implements KV. A document that cannot be parsed reports ErrStorageRead.
func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	items, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := items[key]
	return v, ok, nil
}

// Put implements KV. A corrupt document is replaced rather than merged.
func (f *File) Put(ctx context.Context, entries map[string]string) error {
	return f.Update(ctx, putAll(entries))
}

// Update implements KV. Reads of a corrupt document report ErrStorageRead;
// a write replaces it.
func (f *File) Update(ctx context.Context, fn UpdateFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	locked, err := f.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("locking %s: %w", f.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("locking %s: %w", f.lock.Path(), ctx.Err())
	}
	defer f.lock.Unlock() //nolint:errcheck // closing the descriptor releases it too

	items, readErr := f.read()
	if readErr != nil && !errors.Is(readErr, ErrStorageRead) {
		return readErr
	}

	entries, err := fn(func(key string) (string, bool, error) {
		if readErr != nil {
			return "", false, readErr
		}
		v, ok := items[key]
		return v, ok, nil
	})
	if err != nil || len(entries) == 0 {
		return err
	}

	if readErr != nil {
		items = make(map[string]string)
	}
	maps.Copy(items, entries)
	return f.write(items)
}

// Close implements KV.
func (f *File) Close() error { return f.lock.Close() }

func (f *File) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading store file: %w", err)
	}
	if len(data) == 0 {
		return make(map[string]string), nil
	}

	items := make(map[string]string)
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing %s: %w: %v", f.path, ErrStorageRead, err)
	}
	return items, nil
}

func (f *File) write(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".store-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replacing store file: %w", err)
	}
	return nil
}
