package ledger

import (
	"fmt"
	"slices"

	"github.com/pocketmoney-dev/pocketmoney/internal/model"
)

// Location addresses one slot in a snapshot.
type Location struct {
	Category model.Category
	Bucket   model.Mode
	Index    int
}

// The functions below never modify their input snapshot and never touch the
// balance. The caller commits the returned snapshot.

// Insert prepends tx to snap[category][bucket].
func Insert(snap model.Snapshot, category model.Category, bucket model.Mode, tx model.Transaction) model.Snapshot {
	out := snap.Clone()
	b := out.Category(category)
	bucket = bucket.Normalize()
	b.Set(bucket, append([]model.Transaction{tx}, b.Get(bucket)...))
	out[category] = b
	return out
}

// FindAndLocate looks for id in the cash then online bucket of category.
func FindAndLocate(snap model.Snapshot, category model.Category, txID string) (Location, model.Transaction, bool) {
	b := snap.Category(category)
	for _, m := range model.Modes() {
		idx := slices.IndexFunc(b.Get(m), func(t model.Transaction) bool { return t.ID == txID })
		if idx >= 0 {
			return Location{Category: category, Bucket: m, Index: idx}, b.Get(m)[idx], true
		}
	}
	return Location{}, model.Transaction{}, false
}

// FindAnywhere looks for id in every category.
func FindAnywhere(snap model.Snapshot, txID string) (Location, model.Transaction, bool) {
	for _, c := range categoryKeys(snap) {
		if loc, tx, ok := FindAndLocate(snap, c, txID); ok {
			return loc, tx, true
		}
	}
	return Location{}, model.Transaction{}, false
}

// ReplaceAt overwrites the transaction at loc, keeping its position.
func ReplaceAt(snap model.Snapshot, loc Location, tx model.Transaction) (model.Snapshot, error) {
	if err := checkLocation(snap, loc); err != nil {
		return nil, err
	}
	out := snap.Clone()
	b := out[loc.Category]
	b.Get(loc.Bucket)[loc.Index] = tx
	out[loc.Category] = b
	return out, nil
}

// RemoveAt splices out the transaction at loc and returns it.
func RemoveAt(snap model.Snapshot, loc Location) (model.Snapshot, model.Transaction, error) {
	if err := checkLocation(snap, loc); err != nil {
		return nil, model.Transaction{}, err
	}
	out := snap.Clone()
	b := out[loc.Category]
	txs := b.Get(loc.Bucket)
	removed := txs[loc.Index]
	b.Set(loc.Bucket, slices.Delete(txs, loc.Index, loc.Index+1))
	out[loc.Category] = b
	return out, removed, nil
}

// IDs returns every transaction ID in snap.
func IDs(snap model.Snapshot) []string {
	var ids []string
	snap.Each(func(tx model.Transaction) { ids = append(ids, tx.ID) })
	return ids
}

func checkLocation(snap model.Snapshot, loc Location) error {
	txs := snap.Category(loc.Category).Get(loc.Bucket)
	if loc.Index < 0 || loc.Index >= len(txs) {
		return fmt.Errorf("%s/%s[%d]: %w", loc.Category, loc.Bucket, loc.Index, ErrNotFound)
	}
	return nil
}

// categoryKeys lists known categories first, then any other keys in snap.
func categoryKeys(snap model.Snapshot) []model.Category {
	keys := model.Categories()
	var extra []model.Category
	for c := range snap {
		if !c.Valid() {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}
