package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pocketmoney-dev/pocketmoney/internal/config"
	"github.com/pocketmoney-dev/pocketmoney/internal/gitops"
)

func newInitCommand() *cobra.Command {
	var (
		backend  string
		currency string
		useGit   bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg := config.Default()
			if backend != "" {
				cfg.Store.Backend = backend
				if backend == "sqlite" {
					cfg.Store.Path = "pocketmoney.db"
				}
			}
			if currency != "" {
				cfg.Display.Currency = currency
			}
			cfg.Git.AutoCommit = useGit
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runInit(cmd, absDir, cfg)
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "store backend: file, sqlite or postgres")
	cmd.Flags().StringVar(&currency, "currency", "", "currency symbol for display")
	cmd.Flags().BoolVar(&useGit, "git", false, "keep the data directory under git")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, cfg *config.Config) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	for _, d := range []string{"logs", filepath.Join("import", "processed")} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if !cfg.Git.AutoCommit {
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized PocketMoney data at %s\n", dir)
		return nil
	}

	gitignore := "import/processed/\n*.lock\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	if !gitops.IsRepo(dir) {
		if err := gitops.Init(cmd.Context(), dir); err != nil {
			return err
		}
	}
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.Commit(cmd.Context(), dir, "init: PocketMoney data", author)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized PocketMoney data at %s (%s)\n", dir, hash)
	return nil
}
