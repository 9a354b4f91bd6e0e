package model

// Category classifies what a transaction was for. It also decides the
// transaction's effect on the running balance.
type Category string

const (
	CategoryForMyself Category = "for-myself"
	CategoryGaveMoney Category = "gave-money"
	CategoryBorrowed  Category = "borrowed"
	CategoryDonated   Category = "donated"
	CategoryInvested  Category = "invested"
)

// Sign is the direction a category moves the running balance.
type Sign int

const (
	// Debit transactions are money leaving the wallet.
	Debit Sign = -1
	// Credit transactions are money coming in.
	Credit Sign = 1
)

// categoryInfo is one row of the category table.
type categoryInfo struct {
	Key   Category
	Label string
	Sign  Sign
}

// categoryTable is the closed set of categories, in display order. Adding a
// category means adding a row here, including its sign.
var categoryTable = []categoryInfo{
	{Key: CategoryForMyself, Label: "Spend", Sign: Debit},
	{Key: CategoryGaveMoney, Label: "Gave Money", Sign: Debit},
	{Key: CategoryBorrowed, Label: "Borrowed", Sign: Credit},
	{Key: CategoryDonated, Label: "Donated", Sign: Debit},
	{Key: CategoryInvested, Label: "Invested", Sign: Debit},
}

var categoriesByKey = func() map[Category]categoryInfo {
	m := make(map[Category]categoryInfo, len(categoryTable))
	for _, c := range categoryTable {
		m[c.Key] = c
	}
	return m
}()

// Categories returns every known category in display order.
func Categories() []Category {
	out := make([]Category, len(categoryTable))
	for i, c := range categoryTable {
		out[i] = c.Key
	}
	return out
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoriesByKey[c]
	return ok
}

// Label returns the display label, or the raw key for unknown categories.
func (c Category) Label() string {
	if info, ok := categoriesByKey[c]; ok {
		return info.Label
	}
	return string(c)
}

// Sign returns the ledger sign for c. Anything that is not a known credit
// category is a debit.
func (c Category) Sign() Sign {
	if info, ok := categoriesByKey[c]; ok {
		return info.Sign
	}
	return Debit
}

func (c Category) String() string { return string(c) }
