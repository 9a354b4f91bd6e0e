package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionJSON_WritesTypeAndMode(t *testing.T) {
	tx := Transaction{
		ID:       "abc",
		Amount:   decimal.RequireFromString("12.50"),
		ToWhom:   "Grocer",
		DateTime: "2025-01-15T10:30",
		Why:      "vegetables",
		Category: CategoryForMyself,
		Mode:     ModeCash,
	}
	data, err := json.Marshal(tx)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "cash", raw["type"])
	assert.Equal(t, "cash", raw["mode"])
	assert.Equal(t, "Grocer", raw["toWhom"])
	assert.Equal(t, 12.5, raw["amount"], "amount is a bare number")
	assert.Contains(t, string(data), `"amount":12.5,`)
}

func TestTransactionJSON_ReadsLegacyShapes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantMode Mode
		wantAmt  string
	}{
		{"numeric amount", `{"id":"a","amount":500,"type":"cash","mode":"cash","category":"borrowed"}`, ModeCash, "500"},
		{"string amount", `{"id":"a","amount":"12.34","type":"online","category":"borrowed"}`, ModeOnline, "12.34"},
		{"mode only", `{"id":"a","amount":1,"mode":"cash","category":"borrowed"}`, ModeCash, "1"},
		{"neither", `{"id":"a","amount":1,"category":"borrowed"}`, ModeOnline, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tx Transaction
			require.NoError(t, json.Unmarshal([]byte(tt.input), &tx))
			assert.Equal(t, tt.wantMode, tx.Mode)
			assert.True(t, decimal.RequireFromString(tt.wantAmt).Equal(tx.Amount))
			assert.Equal(t, CategoryBorrowed, tx.Category)
		})
	}
}

func TestFormValues(t *testing.T) {
	tx := Transaction{
		ID:       "abc",
		Amount:   decimal.RequireFromString("99.9"),
		ToWhom:   "Bank",
		DateTime: "2025-02-01T09:00",
		Why:      "loan",
		Category: CategoryBorrowed,
		Mode:     ModeOnline,
	}
	form := tx.FormValues()
	assert.Equal(t, "99.9", form.Amount)
	assert.Equal(t, "Bank", form.ToWhom)
	assert.Equal(t, CategoryBorrowed, form.Category)
	assert.Equal(t, ModeOnline, form.Mode)
}

func TestModeNormalize(t *testing.T) {
	assert.Equal(t, ModeCash, ModeCash.Normalize())
	assert.Equal(t, ModeOnline, ModeOnline.Normalize())
	assert.Equal(t, ModeOnline, Mode("").Normalize())
	assert.Equal(t, ModeOnline, Mode("card").Normalize())
}
