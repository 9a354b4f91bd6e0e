package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pocketmoney-dev/pocketmoney/internal/id"
	"github.com/pocketmoney-dev/pocketmoney/internal/model"
	"github.com/pocketmoney-dev/pocketmoney/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func candidate(category model.Category, mode model.Mode, amount string) model.Candidate {
	return model.Candidate{
		Amount:   amount,
		ToWhom:   "Someone",
		DateTime: "2025-01-15T10:30",
		Why:      "groceries",
		Category: category,
		Mode:     mode,
	}
}

func newTestService(t *testing.T, opts ...Option) (*Service, *store.Adapter) {
	t.Helper()
	adapter := store.NewAdapter(store.NewMemory())
	opts = append([]Option{WithIDGenerator(id.Sequence("tx"))}, opts...)
	return NewService(adapter, opts...), adapter
}

func requireBalance(t *testing.T, svc *Service, want string) {
	t.Helper()
	bal, err := svc.Balance(context.Background())
	require.NoError(t, err)
	require.True(t, dec(want).Equal(bal), "balance: want %s, got %s", want, bal)
}

// failingStore wraps a Store and, once armed, runs each update without
// writing it and reports errDiskFull.
type failingStore struct {
	Store
	fail bool
}

var errDiskFull = errors.New("disk full")

func (f *failingStore) Update(ctx context.Context, fn func(store.State) (store.State, error)) error {
	if !f.fail {
		return f.Store.Update(ctx, fn)
	}
	st, err := f.Store.Load(ctx)
	if err != nil {
		return err
	}
	if _, err := fn(st); err != nil {
		return err
	}
	return errDiskFull
}

// recorder collects events.
type recorder struct {
	events []Event
	err    error
}

func (r *recorder) Record(_ context.Context, e Event) error {
	r.events = append(r.events, e)
	return r.err
}
