package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pocketmoney-dev/pocketmoney/internal/model"
)

// Keys used in the KV. Data exported from the pocket money web widget uses the same names.
const (
	SnapshotKey = "pm_txs"
	BalanceKey  = "pm_balance"
)

// ErrStorageRead marks a stored value that could not be decoded. Loads that
// return it also return the documented default, so callers may carry on.
var ErrStorageRead = errors.New("stored value unreadable")

// Adapter reads and writes the snapshot and balance through a KV.
type Adapter struct {
	kv KV
}

// NewAdapter wraps kv.
func NewAdapter(kv KV) *Adapter {
	return &Adapter{kv: kv}
}

// State is the snapshot and balance read together.
type State struct {
	Snapshot model.Snapshot
	Balance  decimal.Decimal

	// Unreadable wraps ErrStorageRead when a stored value could not be
	// decoded and its default was used instead.
	Unreadable error
}

// LoadSnapshot returns the stored snapshot, or an empty one if nothing is
// stored. A corrupt value yields an empty snapshot and ErrStorageRead.
func (a *Adapter) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	return decodeSnapshot(a.getter(ctx))
}

// LoadBalance returns the stored balance, or zero if nothing is stored. A
// corrupt value yields zero and ErrStorageRead.
func (a *Adapter) LoadBalance(ctx context.Context) (decimal.Decimal, error) {
	return decodeBalance(a.getter(ctx))
}

// Load reads the snapshot and balance under the store's write lock, so the
// pair comes from the same committed state.
func (a *Adapter) Load(ctx context.Context) (State, error) {
	var st State
	err := a.kv.Update(ctx, func(get Getter) (map[string]string, error) {
		var err error
		st, err = decodeState(get)
		return nil, err
	})
	return st, err
}

// Update reads the state, passes it to fn and commits the state fn returns,
// all under the store's write lock. If fn fails nothing is written.
func (a *Adapter) Update(ctx context.Context, fn func(State) (State, error)) error {
	return a.kv.Update(ctx, func(get Getter) (map[string]string, error) {
		st, err := decodeState(get)
		if err != nil {
			return nil, err
		}
		next, err := fn(st)
		if err != nil {
			return nil, err
		}
		return encodeState(next.Snapshot, next.Balance)
	})
}

// SaveSnapshot stores snap on its own.
func (a *Adapter) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	raw, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := a.kv.Put(ctx, map[string]string{SnapshotKey: raw}); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// SaveBalance stores bal on its own.
func (a *Adapter) SaveBalance(ctx context.Context, bal decimal.Decimal) error {
	if err := a.kv.Put(ctx, map[string]string{BalanceKey: bal.String()}); err != nil {
		return fmt.Errorf("saving balance: %w", err)
	}
	return nil
}

// Commit stores the snapshot and balance in one atomic write.
func (a *Adapter) Commit(ctx context.Context, snap model.Snapshot, bal decimal.Decimal) error {
	entries, err := encodeState(snap, bal)
	if err != nil {
		return err
	}
	if err := a.kv.Put(ctx, entries); err != nil {
		return fmt.Errorf("committing ledger: %w", err)
	}
	return nil
}

// Close closes the underlying KV.
func (a *Adapter) Close() error {
	return a.kv.Close()
}

func encodeSnapshot(snap model.Snapshot) (string, error) {
	if snap == nil {
		snap = model.Snapshot{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	return string(data), nil
}

func encodeState(snap model.Snapshot, bal decimal.Decimal) (map[string]string, error) {
	raw, err := encodeSnapshot(snap)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		SnapshotKey: raw,
		BalanceKey:  bal.String(),
	}, nil
}

func (a *Adapter) getter(ctx context.Context) Getter {
	return func(key string) (string, bool, error) { return a.kv.Get(ctx, key) }
}

// decodeState reads both values. Unreadable values fall back to their
// defaults and are reported in State.Unreadable; other errors abort.
func decodeState(get Getter) (State, error) {
	snap, snapErr := decodeSnapshot(get)
	if snapErr != nil && !errors.Is(snapErr, ErrStorageRead) {
		return State{}, snapErr
	}
	bal, balErr := decodeBalance(get)
	if balErr != nil && !errors.Is(balErr, ErrStorageRead) {
		return State{}, balErr
	}
	return State{Snapshot: snap, Balance: bal, Unreadable: errors.Join(snapErr, balErr)}, nil
}

func decodeSnapshot(get Getter) (model.Snapshot, error) {
	raw, ok, err := get(SnapshotKey)
	if err != nil {
		if errors.Is(err, ErrStorageRead) {
			return model.Snapshot{}, err
		}
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return model.Snapshot{}, nil
	}

	var snap model.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("decoding snapshot: %w: %v", ErrStorageRead, err)
	}
	if snap == nil {
		snap = model.Snapshot{}
	}
	return snap, nil
}

func decodeBalance(get Getter) (decimal.Decimal, error) {
	raw, ok, err := get(BalanceKey)
	if err != nil {
		if errors.Is(err, ErrStorageRead) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("loading balance: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return decimal.Zero, nil
	}

	bal, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decoding balance %q: %w", raw, ErrStorageRead)
	}
	return bal, nil
}
