package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pocketmoney-dev/pocketmoney/internal/ledger"
)

func newBalanceCommand(dir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the running balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, *dir, func(ctx context.Context, a *app) error {
				bal, err := a.svc.Balance(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Balance: %s\n", a.money(bal))
				return nil
			})
		},
	}
	cmd.AddCommand(newBalanceAddCommand(dir))
	return cmd
}

func newBalanceAddCommand(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add <amount>",
		Short: "Add money to the balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, *dir, func(ctx context.Context, a *app) error {
				res, err := a.dispatch(ctx, ledger.AddBalanceCommand{Amount: args[0]})
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Balance: %s\n", a.money(res.Balance))
				a.record(ctx, "balance: add "+args[0])
				return nil
			})
		},
	}
}

func newClearCommand(dir *string) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every transaction, keeping manual balance additions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("clear removes every transaction; rerun with --yes to confirm")
			}
			return withApp(cmd, *dir, func(ctx context.Context, a *app) error {
				res, err := a.dispatch(ctx, ledger.ClearCommand{})
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Balance: %s\n", a.money(res.Balance))
				a.record(ctx, "clear: all transactions")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm removing every transaction")
	return cmd
}
