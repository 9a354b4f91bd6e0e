package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns every KV implementation that can run in this environment.
func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFile(filepath.Join(dir, "data", "ledger.json"))
	require.NoError(t, err)

	sqlite, err := NewSQLite(filepath.Join(dir, "data", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	kvs := map[string]KV{
		"memory": NewMemory(),
		"file":   file,
		"sqlite": sqlite,
	}

	if dsn := os.Getenv("POCKETMONEY_TEST_POSTGRES_DSN"); dsn != "" {
		pg, err := NewPostgres(context.Background(), dsn)
		require.NoError(t, err)
		t.Cleanup(func() { pg.Close() })
		kvs["postgres"] = pg
	}
	return kvs
}

func TestKV_GetMissing(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get(ctx, "missing-key")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestKV_PutGet(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Put(ctx, map[string]string{"a": "1", "b": "two"}))

			v, ok, err := kv.Get(ctx, "a")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "1", v)

			// Overwrite one key, leave the other.
			require.NoError(t, kv.Put(ctx, map[string]string{"a": "3"}))
			v, _, err = kv.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "3", v)
			v, _, err = kv.Get(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, "two", v)
		})
	}
}

func increment(key string) UpdateFunc {
	return func(get Getter) (map[string]string, error) {
		v, _, err := get(key)
		if err != nil {
			return nil, err
		}
		n, _ := strconv.Atoi(v)
		return map[string]string{key: strconv.Itoa(n + 1)}, nil
	}
}

func TestKV_UpdateWritesWhatFnReturns(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Put(ctx, map[string]string{"n": "4"}))

			require.NoError(t, kv.Update(ctx, increment("n")))
			v, _, err := kv.Get(ctx, "n")
			require.NoError(t, err)
			assert.Equal(t, "5", v)

			boom := errors.New("boom")
			err = kv.Update(ctx, func(get Getter) (map[string]string, error) {
				return map[string]string{"n": "99"}, boom
			})
			require.ErrorIs(t, err, boom)

			require.NoError(t, kv.Update(ctx, func(Getter) (map[string]string, error) { return nil, nil }))

			v, _, err = kv.Get(ctx, "n")
			require.NoError(t, err)
			assert.Equal(t, "5", v, "failed and empty updates write nothing")
		})
	}
}

func TestKV_UpdateExcludesOtherInstances(t *testing.T) {
	dir := t.TempDir()
	openers := map[string]func() (KV, error){
		"file":   func() (KV, error) { return NewFile(filepath.Join(dir, "counter.json")) },
		"sqlite": func() (KV, error) { return NewSQLite(filepath.Join(dir, "counter.db")) },
	}
	for name, open := range openers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const workers, rounds = 4, 10

			// Each worker has its own instance, as separate processes would.
			kvs := make([]KV, workers)
			for i := range kvs {
				kv, err := open()
				require.NoError(t, err)
				t.Cleanup(func() { kv.Close() })
				kvs[i] = kv
			}

			var wg sync.WaitGroup
			errs := make(chan error, workers*rounds)
			for _, kv := range kvs {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range rounds {
						errs <- kv.Update(ctx, increment("n"))
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			v, ok, err := kvs[0].Get(ctx, "n")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, strconv.Itoa(workers*rounds), v)
		})
	}
}

func TestFile_CorruptDocument(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	f, err := NewFile(path)
	require.NoError(t, err)

	_, _, err = f.Get(ctx, SnapshotKey)
	require.ErrorIs(t, err, ErrStorageRead)

	// Writing replaces the corrupt document.
	require.NoError(t, f.Put(ctx, map[string]string{BalanceKey: "5"}))
	v, ok, err := f.Get(ctx, BalanceKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "5", v)
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")

	f1, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, f1.Put(ctx, map[string]string{BalanceKey: "42.50"}))

	f2, err := NewFile(path)
	require.NoError(t, err)
	v, ok, err := f2.Get(ctx, BalanceKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42.50", v)

	// No temp files left behind; only the store and its lock file.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"ledger.json", "ledger.json.lock"}, names)
}

func TestSQLite_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s1, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s1.Put(ctx, map[string]string{BalanceKey: "7"}))
	require.NoError(t, s1.Close())

	// Reopening runs migrations again, which must be a no-op.
	s2, err := NewSQLite(path)
	require.NoError(t, err)
	defer s2.Close()

	v, ok, err := s2.Get(ctx, BalanceKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "7", v)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	kv, err := Open(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, kv)

	kv, err = Open(ctx, Options{Backend: BackendFile, Path: filepath.Join(dir, "l.json")})
	require.NoError(t, err)
	assert.IsType(t, &File{}, kv)

	kv, err = Open(ctx, Options{Backend: BackendSQLite, Path: filepath.Join(dir, "l.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, kv)
	require.NoError(t, kv.Close())

	_, err = Open(ctx, Options{Backend: "redis"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")

	_, err = Open(ctx, Options{Backend: BackendPostgres})
	require.Error(t, err)
}
