// Package importer loads transactions from files dropped into the import
// directory and submits them to the ledger.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pocketmoney-dev/pocketmoney/internal/ledger"
	"github.com/pocketmoney-dev/pocketmoney/internal/model"
)

// Parser converts an import file into transactions.
type Parser interface {
	Parse(r io.Reader) ([]model.Transaction, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// ForFile picks a parser from the file extension: .csv or .json.
func (r *Registry) ForFile(name string) Parser {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return r.Get(FormatCSV)
	case ".json":
		return r.Get(FormatBackup)
	}
	return nil
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CSVParser{})
	r.Register(&BackupParser{})
	return r
}

const (
	importDir    = "import"
	processedDir = "import/processed"
)

// Scan returns importable files in <dir>/import/.
func Scan(dir string) ([]FileInfo, error) {
	importPath := filepath.Join(dir, importDir)
	entries, err := os.ReadDir(importPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".csv" && ext != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(importPath, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(dir, fileName string) error {
	src := filepath.Join(dir, importDir, fileName)
	dstDir := filepath.Join(dir, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}

// Creator is the part of the ledger an import writes through. Create must
// always add a new transaction, even while an edit is open.
type Creator interface {
	Create(ctx context.Context, c model.Candidate) (model.Transaction, error)
}

// Rejection is a row the ledger refused.
type Rejection struct {
	Row    int // 1-based position in the parsed input
	Source model.Transaction
	Errors []string
}

// Summary is the outcome of Apply.
type Summary struct {
	Imported []model.Transaction
	Rejected []Rejection
}

// Apply creates every transaction as a new entry, so each one is validated
// and moves the balance exactly as a manual entry would. Rows failing
// validation are collected; any other error stops the import.
func Apply(ctx context.Context, dst Creator, txs []model.Transaction) (Summary, error) {
	var sum Summary
	for i, tx := range txs {
		saved, err := dst.Create(ctx, tx.FormValues())
		var verrs ledger.ValidationErrors
		switch {
		case err == nil:
			sum.Imported = append(sum.Imported, saved)
		case errors.As(err, &verrs):
			sum.Rejected = append(sum.Rejected, Rejection{Row: i + 1, Source: tx, Errors: verrs.Messages()})
		default:
			return sum, fmt.Errorf("importing row %d: %w", i+1, err)
		}
	}
	return sum, nil
}
