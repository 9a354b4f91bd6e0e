package commands

import (
	"github.com/spf13/cobra"

	"github.com/pocketmoney-dev/pocketmoney/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var dir string

	rootCmd := &cobra.Command{
		Use:     "pocketmoney",
		Short:   "Personal pocket money ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&dir, "dir", "d", ".", "data directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newAddCommand(&dir),
		newEditCommand(&dir),
		newDeleteCommand(&dir),
		newListCommand(&dir),
		newBalanceCommand(&dir),
		newClearCommand(&dir),
		newDumpCommand(&dir),
		newVerifyCommand(&dir),
		newExportCommand(&dir),
		newImportCommand(&dir),
		newHistoryCommand(&dir),
	)

	return rootCmd
}
