// Package activity keeps an append-only CSV history of committed ledger
// mutations under <dir>/logs/activity.csv.
package activity

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pocketmoney-dev/pocketmoney/internal/ledger"
	"github.com/pocketmoney-dev/pocketmoney/internal/model"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp time.Time
	Action    string
	Category  model.Category
	TxID      string
	Amount    decimal.Decimal
	Balance   decimal.Decimal
	Details   string
}

// Header is the CSV header for activity.csv.
const Header = "timestamp,action,category,tx_id,amount,balance,details"

const (
	numFields   = 7
	logDir      = "logs"
	logFile     = "logs/activity.csv"
	colTime     = 0
	colAction   = 1
	colCategory = 2
	colTxID     = 3
	colAmount   = 4
	colBalance  = 5
	colDetails  = 6
)

// FromEvent converts a ledger event into a log entry.
func FromEvent(e ledger.Event) Entry {
	return Entry{
		Timestamp: e.Time,
		Action:    e.Action,
		Category:  e.Category,
		TxID:      e.TxID,
		Amount:    e.Amount,
		Balance:   e.Balance,
		Details:   e.Details,
	}
}

// MarshalEntry converts an Entry to a CSV row. A zero amount is written as
// an empty cell.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTime] = e.Timestamp.Format(time.RFC3339)
	row[colAction] = e.Action
	row[colCategory] = string(e.Category)
	row[colTxID] = e.TxID
	if !e.Amount.IsZero() {
		row[colAmount] = e.Amount.StringFixed(2)
	}
	row[colBalance] = e.Balance.StringFixed(2)
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTime])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTime], err)
	}

	amount := decimal.Zero
	if s := record[colAmount]; s != "" {
		amount, err = decimal.NewFromString(s)
		if err != nil {
			return Entry{}, fmt.Errorf("parsing amount %q: %w", s, err)
		}
	}
	balance, err := decimal.NewFromString(record[colBalance])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
	}

	return Entry{
		Timestamp: ts,
		Action:    record[colAction],
		Category:  model.Category(record[colCategory]),
		TxID:      record[colTxID],
		Amount:    amount,
		Balance:   balance,
		Details:   record[colDetails],
	}, nil
}

// Append writes entries to <dir>/logs/activity.csv, creating the file and
// header if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Join(dir, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(dir)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/logs/activity.csv, or nil if the
// file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// Path returns the activity log location for dir.
func Path(dir string) string {
	return filepath.Join(dir, logFile)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Log records ledger events to the activity file under a data directory.
type Log struct {
	mu  sync.Mutex
	dir string
}

// NewLog returns a Log writing under dir.
func NewLog(dir string) *Log {
	return &Log{dir: dir}
}

// Record implements ledger.Recorder.
func (l *Log) Record(_ context.Context, e ledger.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Append(l.dir, []Entry{FromEvent(e)})
}

var _ ledger.Recorder = (*Log)(nil)
