package model

import "slices"

// Buckets splits a category's transactions by payment mode, newest first.
type Buckets struct {
	Cash   []Transaction `json:"cash"`
	Online []Transaction `json:"online"`
}

// Get returns the bucket for m.
func (b Buckets) Get(m Mode) []Transaction {
	if m == ModeCash {
		return b.Cash
	}
	return b.Online
}

// Set replaces the bucket for m.
func (b *Buckets) Set(m Mode, txs []Transaction) {
	if m == ModeCash {
		b.Cash = txs
		return
	}
	b.Online = txs
}

// Len returns the number of transactions across both buckets.
func (b Buckets) Len() int { return len(b.Cash) + len(b.Online) }

// All returns cash then online transactions.
func (b Buckets) All() []Transaction {
	out := make([]Transaction, 0, b.Len())
	out = append(out, b.Cash...)
	return append(out, b.Online...)
}

func (b Buckets) clone() Buckets {
	return Buckets{
		Cash:   nonNil(slices.Clone(b.Cash)),
		Online: nonNil(slices.Clone(b.Online)),
	}
}

func nonNil(txs []Transaction) []Transaction {
	if txs == nil {
		return []Transaction{}
	}
	return txs
}

// Snapshot is the whole stored transaction state, keyed by category.
type Snapshot map[Category]Buckets

// Category returns the buckets for c. Absent categories read as empty.
func (s Snapshot) Category(c Category) Buckets {
	b, ok := s[c]
	if !ok {
		return Buckets{Cash: []Transaction{}, Online: []Transaction{}}
	}
	return b
}

// Clone returns a deep copy; mutating the copy never touches s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for c, b := range s {
		out[c] = b.clone()
	}
	return out
}

// Len returns the total number of stored transactions.
func (s Snapshot) Len() int {
	n := 0
	for _, b := range s {
		n += b.Len()
	}
	return n
}

// Each calls fn for every stored transaction, categories in display order
// followed by any unknown keys.
func (s Snapshot) Each(fn func(Transaction)) {
	seen := make(map[Category]bool, len(s))
	for _, c := range Categories() {
		seen[c] = true
		for _, tx := range s.Category(c).All() {
			fn(tx)
		}
	}
	var extra []Category
	for c := range s {
		if !seen[c] {
			extra = append(extra, c)
		}
	}
	slices.Sort(extra)
	for _, c := range extra {
		for _, tx := range s[c].All() {
			fn(tx)
		}
	}
}
