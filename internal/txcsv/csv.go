// Package txcsv reads and writes transactions as CSV.
package txcsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pocketmoney-dev/pocketmoney/internal/model"
)

// Header is the CSV header for exported transactions.
const Header = "id,date_time,category,mode,amount,to_whom,why"

const (
	numFields   = 7
	colID       = 0
	colDateTime = 1
	colCategory = 2
	colMode     = 3
	colAmount   = 4
	colToWhom   = 5
	colWhy      = 6
)

// ReadTransactions reads every row after the header.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if strings.Join(records[0], ",") != Header {
		return nil, fmt.Errorf("unexpected header %q", strings.Join(records[0], ","))
	}

	var txs []model.Transaction
	for i, rec := range records[1:] {
		tx, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// WriteTransactions writes the header followed by one row per transaction.
func WriteTransactions(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range txs {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a transaction to a CSV row.
func MarshalTransaction(tx model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = tx.ID
	row[colDateTime] = tx.DateTime
	row[colCategory] = string(tx.Category)
	row[colMode] = string(tx.Mode)
	row[colAmount] = tx.Amount.StringFixed(2)
	row[colToWhom] = tx.ToWhom
	row[colWhy] = tx.Why
	return row
}

// UnmarshalTransaction converts a CSV row to a transaction. Category and
// amount are checked only for syntax; the ledger validates them on import.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(record[colAmount]))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return model.Transaction{
		ID:       record[colID],
		Amount:   amount,
		ToWhom:   record[colToWhom],
		DateTime: record[colDateTime],
		Why:      record[colWhy],
		Category: model.Category(record[colCategory]),
		Mode:     model.Mode(record[colMode]).Normalize(),
	}, nil
}
