package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pocketmoney-dev/pocketmoney/internal/model"
)

// Report is the result of checking the stored balance against the stored
// transactions.
type Report struct {
	Balance      decimal.Decimal
	Effects      decimal.Decimal // sum of every transaction's effect
	Manual       decimal.Decimal // Balance - Effects: what manual top-ups must account for
	Transactions int
	Duplicates   []string // IDs stored in more than one slot
	Misfiled     []string // IDs whose category or mode disagrees with their slot
	NonPositive  []string // IDs with an amount <= 0
}

// OK reports whether the ledger is consistent.
func (r Report) OK() bool {
	return !r.Manual.IsNegative() && len(r.Duplicates) == 0 && len(r.Misfiled) == 0 && len(r.NonPositive) == 0
}

// Problems describes each inconsistency.
func (r Report) Problems() []string {
	var out []string
	if r.Manual.IsNegative() {
		out = append(out, fmt.Sprintf("balance %s is below the transactions' net effect %s", r.Balance.StringFixed(2), r.Effects.StringFixed(2)))
	}
	for _, txID := range r.Duplicates {
		out = append(out, fmt.Sprintf("transaction %s is stored more than once", txID))
	}
	for _, txID := range r.Misfiled {
		out = append(out, fmt.Sprintf("transaction %s is filed under the wrong category or bucket", txID))
	}
	for _, txID := range r.NonPositive {
		out = append(out, fmt.Sprintf("transaction %s has a non-positive amount", txID))
	}
	return out
}

// Reconcile checks the balance invariant: balance equals the manual
// additions plus the sum of every stored transaction's effect.
func (s *Service) Reconcile(ctx context.Context) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, bal, err := s.load(ctx)
	if err != nil {
		return Report{}, err
	}
	return Check(snap, bal), nil
}

// Check builds a Report for snap and bal.
func Check(snap model.Snapshot, bal decimal.Decimal) Report {
	effects := Effects(snap)
	r := Report{
		Balance:      bal,
		Effects:      effects,
		Manual:       bal.Sub(effects),
		Transactions: snap.Len(),
	}

	seen := make(map[string]int)
	for _, c := range categoryKeys(snap) {
		b, ok := snap[c]
		if !ok {
			continue
		}
		for _, m := range model.Modes() {
			for _, tx := range b.Get(m) {
				seen[tx.ID]++
				if seen[tx.ID] == 2 {
					r.Duplicates = append(r.Duplicates, tx.ID)
				}
				if tx.Category != c || tx.Mode != m {
					r.Misfiled = append(r.Misfiled, tx.ID)
				}
				if !tx.Amount.IsPositive() {
					r.NonPositive = append(r.NonPositive, tx.ID)
				}
			}
		}
	}
	return r
}
