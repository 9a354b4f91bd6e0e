package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pocketmoney-dev/pocketmoney/internal/activity"
	"github.com/pocketmoney-dev/pocketmoney/internal/id"
	"github.com/pocketmoney-dev/pocketmoney/internal/ledger"
	"github.com/pocketmoney-dev/pocketmoney/internal/model"
)

func newListCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list [category]",
		Short: "Show one category's cash and online transactions",
		Long:  "Show one category's cash and online transactions. The category defaults to for-myself.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := model.CategoryForMyself
			if len(args) > 0 {
				category = model.Category(args[0])
			}
			return withApp(cmd, *dir, func(ctx context.Context, a *app) error {
				res, err := a.dispatch(ctx, ledger.ViewCommand{Category: category})
				if err != nil {
					return err
				}
				printView(a, *res.View)
				return nil
			})
		},
	}
}

func printView(a *app, v ledger.View) {
	fmt.Fprintf(a.out, "%s (%s)\n%s\n", v.Label, v.Category, v.Summary())
	printBucket(a, "Hand Cash", v.Cash)
	printBucket(a, "Online", v.Online)
	fmt.Fprintf(a.out, "\nTotal: %s\nBalance: %s\n", a.money(v.Total), a.money(v.Balance))
}

func printBucket(a *app, title string, txs []model.Transaction) {
	fmt.Fprintf(a.out, "\n%s\n", title)
	if len(txs) == 0 {
		fmt.Fprintln(a.out, "  (none)")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, tx := range txs {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", id.Short(tx.ID), tx.DateTime, tx.ToWhom, tx.Why, a.money(tx.Amount))
	}
	tw.Flush()
}

func newDumpCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print every stored transaction as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dir, func(ctx context.Context, a *app) error {
				snap, err := a.svc.All(ctx)
				if err != nil {
					return err
				}
				return writeJSON(a.out, snap)
			})
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newVerifyCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the balance against the stored transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dir, func(ctx context.Context, a *app) error {
				r, err := a.svc.Reconcile(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Transactions: %d\n", r.Transactions)
				fmt.Fprintf(a.out, "Balance: %s\n", a.money(r.Balance))
				fmt.Fprintf(a.out, "Net effect: %s\n", a.money(r.Effects))
				fmt.Fprintf(a.out, "Manual additions: %s\n", a.money(r.Manual))
				if r.OK() {
					fmt.Fprintln(a.out, "OK")
					return nil
				}
				for _, p := range r.Problems() {
					fmt.Fprintf(a.out, "problem: %s\n", p)
				}
				return fmt.Errorf("ledger has %d problem(s)", len(r.Problems()))
			})
		},
	}
}

func newHistoryCommand(dir *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the activity log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dir, func(_ context.Context, a *app) error {
				entries, err := activity.Read(a.dir)
				if err != nil {
					return err
				}
				if limit > 0 && len(entries) > limit {
					entries = entries[len(entries)-limit:]
				}
				if len(entries) == 0 {
					fmt.Fprintln(a.out, "No activity yet")
					return nil
				}
				tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						e.Timestamp.Local().Format(dateTimeLayout), e.Action, e.Category, id.Short(e.TxID), a.money(e.Balance), e.Details)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show only the last n entries (0 for all)")
	return cmd
}
