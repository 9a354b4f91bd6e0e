package importer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pocketmoney-dev/pocketmoney/internal/model"
	"github.com/pocketmoney-dev/pocketmoney/internal/txcsv"
)

// Parser format names.
const (
	FormatCSV    = "csv"
	FormatBackup = "backup"
)

// CSVParser reads files written by the export command.
type CSVParser struct{}

// Format returns the parser name.
func (p *CSVParser) Format() string { return FormatCSV }

// Parse reads an exported transactions CSV.
func (p *CSVParser) Parse(r io.Reader) ([]model.Transaction, error) {
	return txcsv.ReadTransactions(r)
}

// BackupParser reads a JSON snapshot: the value stored under the
// transactions key, or the output of the dump command.
type BackupParser struct{}

// Format returns the parser name.
func (p *BackupParser) Format() string { return FormatBackup }

// Parse decodes the snapshot and flattens it in display order.
func (p *BackupParser) Parse(r io.Reader) ([]model.Transaction, error) {
	var snap model.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding backup: %w", err)
	}

	var txs []model.Transaction
	snap.Each(func(tx model.Transaction) {
		txs = append(txs, tx)
	})
	return txs, nil
}
