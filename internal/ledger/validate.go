package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pocketmoney-dev/pocketmoney/internal/model"
)

// Messages shown for failed checks.
const (
	MsgInvalidAmount = "Enter a valid amount (> 0)"
	MsgNoRecipient   = "Enter recipient"
	MsgNoDateTime    = "Enter date & time"
	MsgShortReason   = "Add a short reason (min 3 chars)"
	MsgNoCategory    = "Select a category"
	MsgInvalidMode   = "Select cash or online"
)

const minReasonLen = 3

// Amounts are plain decimals with at most maxAmountDigits digits before the
// point and maxAmountDecimals after it.
const (
	maxAmountDigits   = 15
	maxAmountDecimals = 2
)

var maxAmount = decimal.New(1, maxAmountDigits)

// Validate runs every field check on c and returns all failures. An empty
// result means c can be committed.
func Validate(c model.Candidate) ValidationErrors {
	var errs ValidationErrors

	if _, ok := ParseAmount(c.Amount); !ok {
		errs = append(errs, ValidationError{Field: "amount", Message: MsgInvalidAmount})
	}
	if strings.TrimSpace(c.ToWhom) == "" {
		errs = append(errs, ValidationError{Field: "toWhom", Message: MsgNoRecipient})
	}
	if strings.TrimSpace(c.DateTime) == "" {
		errs = append(errs, ValidationError{Field: "dateTime", Message: MsgNoDateTime})
	}
	if len([]rune(strings.TrimSpace(c.Why))) < minReasonLen {
		errs = append(errs, ValidationError{Field: "why", Message: MsgShortReason})
	}
	if !c.Category.Valid() {
		errs = append(errs, ValidationError{Field: "category", Message: MsgNoCategory})
	}
	if c.Mode != "" && !c.Mode.Valid() {
		errs = append(errs, ValidationError{Field: "mode", Message: MsgInvalidMode})
	}

	return errs
}

// ParseAmount parses a positive decimal amount. Exponent notation is
// refused so that the size of the stored value stays bounded by the input.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "eE") {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	if d.GreaterThanOrEqual(maxAmount) || !d.Equal(d.Truncate(maxAmountDecimals)) {
		return decimal.Zero, false
	}
	return d, true
}

// build turns a validated candidate into a transaction with the given id.
func build(txID string, c model.Candidate) model.Transaction {
	amount, _ := ParseAmount(c.Amount)
	return model.Transaction{
		ID:       txID,
		Amount:   amount,
		ToWhom:   strings.TrimSpace(c.ToWhom),
		DateTime: strings.TrimSpace(c.DateTime),
		Why:      strings.TrimSpace(c.Why),
		Category: c.Category,
		Mode:     c.Mode.Normalize(),
	}
}
