package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Mode is the payment mode of a transaction. It doubles as the bucket the
// transaction is filed under inside its category.
type Mode string

const (
	ModeCash   Mode = "cash"
	ModeOnline Mode = "online"
)

// Modes returns the buckets in lookup order.
func Modes() []Mode { return []Mode{ModeCash, ModeOnline} }

// Valid reports whether m is cash or online.
func (m Mode) Valid() bool { return m == ModeCash || m == ModeOnline }

// Normalize maps anything that is not cash to online.
func (m Mode) Normalize() Mode {
	if m == ModeCash {
		return ModeCash
	}
	return ModeOnline
}

// Transaction is one recorded payment. Amount is always a positive
// magnitude; the direction comes from Category.
type Transaction struct {
	ID       string
	Amount   decimal.Decimal
	ToWhom   string
	DateTime string // local ISO timestamp, e.g. "2025-01-15T10:30"
	Why      string
	Category Category
	Mode     Mode
}

// transactionJSON is the stored shape. "type" and "mode" both carry the
// payment mode; they are written identically and read with "type" first.
type transactionJSON struct {
	ID       string          `json:"id"`
	Amount   number          `json:"amount"`
	ToWhom   string          `json:"toWhom"`
	DateTime string          `json:"dateTime"`
	Why      string          `json:"why"`
	Category Category        `json:"category"`
	Type     Mode            `json:"type"`
	Mode     Mode            `json:"mode,omitempty"`
}

// number is an amount written as a bare JSON number, the way the widget
// stores it. Quoted amounts are still read.
type number decimal.Decimal

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).String()), nil
}

func (n *number) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*n = number(d)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:       t.ID,
		Amount:   number(t.Amount),
		ToWhom:   t.ToWhom,
		DateTime: t.DateTime,
		Why:      t.Why,
		Category: t.Category,
		Type:     t.Mode,
		Mode:     t.Mode,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw transactionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	mode := raw.Type
	if mode == "" {
		mode = raw.Mode
	}
	*t = Transaction{
		ID:       raw.ID,
		Amount:   decimal.Decimal(raw.Amount),
		ToWhom:   raw.ToWhom,
		DateTime: raw.DateTime,
		Why:      raw.Why,
		Category: raw.Category,
		Mode:     mode.Normalize(),
	}
	return nil
}

// Candidate holds the raw form fields of a submission before validation.
type Candidate struct {
	Amount   string
	ToWhom   string
	DateTime string
	Why      string
	Category Category
	Mode     Mode
}

// FormValues converts a stored transaction back into form fields.
func (t Transaction) FormValues() Candidate {
	return Candidate{
		Amount:   t.Amount.String(),
		ToWhom:   t.ToWhom,
		DateTime: t.DateTime,
		Why:      t.Why,
		Category: t.Category,
		Mode:     t.Mode,
	}
}
