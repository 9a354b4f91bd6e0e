package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pocketmoney-dev/pocketmoney/internal/ledger"
	"github.com/pocketmoney-dev/pocketmoney/internal/model"
)

const dateTimeLayout = "2006-01-02T15:04"

// formFlags are the transaction form fields shared by add and edit.
type formFlags struct {
	amount   string
	toWhom   string
	dateTime string
	why      string
	category string
	mode     string
}

func (f *formFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "amount (> 0)")
	cmd.Flags().StringVarP(&f.toWhom, "to", "t", "", "who the money went to or came from")
	cmd.Flags().StringVar(&f.dateTime, "date", "", "local date and time, e.g. 2025-01-15T10:30 (default now)")
	cmd.Flags().StringVarP(&f.why, "why", "w", "", "short reason (min 3 chars)")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "for-myself, gave-money, borrowed, donated or invested")
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "cash or online")
}

// apply overwrites the fields of c whose flags were set on cmd.
func (f *formFlags) apply(cmd *cobra.Command, c model.Candidate) model.Candidate {
	set := cmd.Flags().Changed
	if set("amount") {
		c.Amount = f.amount
	}
	if set("to") {
		c.ToWhom = f.toWhom
	}
	if set("date") {
		c.DateTime = f.dateTime
	}
	if set("why") {
		c.Why = f.why
	}
	if set("category") {
		c.Category = model.Category(f.category)
	}
	if set("mode") {
		c.Mode = model.Mode(f.mode)
	}
	return c
}

func newAddCommand(dir *string) *cobra.Command {
	var form formFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := form.apply(cmd, model.Candidate{
				DateTime: time.Now().Format(dateTimeLayout),
				Mode:     model.ModeCash,
			})
			return withApp(cmd, *dir, func(ctx context.Context, a *app) error {
				res, err := a.dispatch(ctx, ledger.SubmitCommand{Candidate: c})
				if err != nil {
					return err
				}
				printSaved(a, res)
				a.record(ctx, fmt.Sprintf("add: %s %s", res.Transaction.Category, res.Transaction.ID))
				return nil
			})
		},
	}
	form.register(cmd)
	return cmd
}

func newEditCommand(dir *string) *cobra.Command {
	var form formFlags

	cmd := &cobra.Command{
		Use:   "edit <category> <id>",
		Short: "Change a transaction; unset flags keep their stored values",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := model.Category(args[0])
			return withApp(cmd, *dir, func(ctx context.Context, a *app) error {
				txID, err := a.resolveID(ctx, category, args[1])
				if err != nil {
					return err
				}
				snap, err := a.svc.All(ctx)
				if err != nil {
					return err
				}
				_, stored, ok := ledger.FindAndLocate(snap, category, txID)
				if !ok {
					return errors.New(ledger.MsgNotFound)
				}

				res, err := a.dispatch(ctx, ledger.EditCommand{
					Category:  category,
					ID:        txID,
					Candidate: form.apply(cmd, stored.FormValues()),
				})
				if err != nil {
					return err
				}
				printSaved(a, res)
				a.record(ctx, fmt.Sprintf("edit: %s %s", res.Transaction.Category, res.Transaction.ID))
				return nil
			})
		},
	}
	form.register(cmd)
	return cmd
}

func newDeleteCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category> <id>",
		Short: "Remove a transaction and reverse its balance effect",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := model.Category(args[0])
			return withApp(cmd, *dir, func(ctx context.Context, a *app) error {
				txID, err := a.resolveID(ctx, category, args[1])
				if err != nil {
					return err
				}
				res, err := a.dispatch(ctx, ledger.DeleteCommand{Category: category, ID: txID})
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Balance: %s\n", a.money(res.Balance))
				a.record(ctx, fmt.Sprintf("delete: %s %s", category, res.Removed.ID))
				return nil
			})
		},
	}
}

func printSaved(a *app, res ledger.Result) {
	tx := res.Transaction
	fmt.Fprintf(a.out, "%s  %s  %s  %s\n", tx.ID, tx.Category.Label(), tx.Mode, a.money(tx.Amount))
	fmt.Fprintf(a.out, "Balance: %s\n", a.money(res.Balance))
}
