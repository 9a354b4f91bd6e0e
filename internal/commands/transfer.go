package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pocketmoney-dev/pocketmoney/internal/importer"
	"github.com/pocketmoney-dev/pocketmoney/internal/model"
	"github.com/pocketmoney-dev/pocketmoney/internal/txcsv"
)

func newExportCommand(dir *string) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every transaction as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dir, func(ctx context.Context, a *app) error {
				snap, err := a.svc.All(ctx)
				if err != nil {
					return err
				}
				var txs []model.Transaction
				snap.Each(func(tx model.Transaction) { txs = append(txs, tx) })

				if outPath == "" || outPath == "-" {
					return txcsv.WriteTransactions(a.out, txs)
				}
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating %s: %w", outPath, err)
				}
				if err := txcsv.WriteTransactions(f, txs); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Exported %d transactions to %s\n", len(txs), outPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file...]",
		Short: "Import transactions from CSV exports or JSON backups",
		Long: "Import transactions from CSV exports or JSON backups. With no arguments, every " +
			".csv and .json file in <dir>/import is imported and moved to import/processed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *dir, func(ctx context.Context, a *app) error {
				return runImport(ctx, a, args)
			})
		},
	}
}

func runImport(ctx context.Context, a *app, paths []string) error {
	reg := importer.DefaultRegistry()

	scanned := len(paths) == 0
	if scanned {
		files, err := importer.Scan(a.dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			paths = append(paths, f.Path)
		}
		if len(paths) == 0 {
			fmt.Fprintln(a.out, "Nothing to import")
			return nil
		}
	}

	total := 0
	for _, path := range paths {
		p := reg.ForFile(path)
		if p == nil {
			return fmt.Errorf("%s: unsupported file type", path)
		}
		txs, err := parseFile(p, path)
		if err != nil {
			return err
		}

		sum, err := importer.Apply(ctx, a.svc, txs)
		total += len(sum.Imported)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(a.out, "%s: imported %d, rejected %d\n", filepath.Base(path), len(sum.Imported), len(sum.Rejected))
		for _, r := range sum.Rejected {
			fmt.Fprintf(a.out, "  row %d (%s): %s\n", r.Row, r.Source.ToWhom, strings.Join(r.Errors, "; "))
		}

		if scanned {
			if err := importer.MarkProcessed(a.dir, filepath.Base(path)); err != nil {
				a.log.Warn().Err(err).Str("file", path).Msg("could not move imported file")
			}
		}
	}

	bal, err := a.svc.Balance(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Balance: %s\n", a.money(bal))
	if total > 0 {
		a.record(ctx, fmt.Sprintf("import: %d transactions", total))
	}
	return nil
}

func parseFile(p importer.Parser, path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: no such file", path)
		}
		return nil, err
	}
	defer f.Close()

	txs, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return txs, nil
}
