package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pocketmoney-dev/pocketmoney/internal/model"
)

// View is what a presentation layer needs to render one category.
type View struct {
	Category model.Category
	Label    string
	Cash     []model.Transaction
	Online   []model.Transaction
	Total    decimal.Decimal // sum of amounts in the category, unsigned
	Balance  decimal.Decimal
}

// Summary is the bucket count line, e.g. "Hand Cash: 2 | Online: 1".
func (v View) Summary() string {
	return fmt.Sprintf("Hand Cash: %d | Online: %d", len(v.Cash), len(v.Online))
}

// CategoryView returns the lists, total and balance for category.
func (s *Service) CategoryView(ctx context.Context, category model.Category) (View, error) {
	if !category.Valid() {
		return View{}, fmt.Errorf("%q: %w", category, ErrUnknownCategory)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, bal, err := s.load(ctx)
	if err != nil {
		return View{}, err
	}
	b := snap.Category(category)

	total := decimal.Zero
	for _, tx := range b.All() {
		total = total.Add(tx.Amount)
	}

	return View{
		Category: category,
		Label:    category.Label(),
		Cash:     nonNilTxs(b.Cash),
		Online:   nonNilTxs(b.Online),
		Total:    total,
		Balance:  bal,
	}, nil
}

func nonNilTxs(txs []model.Transaction) []model.Transaction {
	if txs == nil {
		return []model.Transaction{}
	}
	return txs
}
