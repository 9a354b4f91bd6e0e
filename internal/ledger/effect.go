package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/pocketmoney-dev/pocketmoney/internal/model"
)

// EffectOf returns the signed change a transaction of this category and
// amount makes to the running balance.
func EffectOf(c model.Category, amount decimal.Decimal) decimal.Decimal {
	if c.Sign() == model.Credit {
		return amount
	}
	return amount.Neg()
}

// ApplyCreate adds tx's effect to bal.
func ApplyCreate(bal decimal.Decimal, tx model.Transaction) decimal.Decimal {
	return bal.Add(EffectOf(tx.Category, tx.Amount))
}

// ApplyDelete removes a stored transaction's effect from bal.
func ApplyDelete(bal decimal.Decimal, removed model.Transaction) decimal.Decimal {
	return bal.Sub(EffectOf(removed.Category, removed.Amount))
}

// ApplyEdit reverts old (as stored, under its own category) and applies
// updated. Both steps run even when nothing changed.
func ApplyEdit(bal decimal.Decimal, old, updated model.Transaction) decimal.Decimal {
	return ApplyCreate(ApplyDelete(bal, old), updated)
}

// Effects sums the effect of every transaction in snap.
func Effects(snap model.Snapshot) decimal.Decimal {
	total := decimal.Zero
	snap.Each(func(tx model.Transaction) {
		total = total.Add(EffectOf(tx.Category, tx.Amount))
	})
	return total
}
