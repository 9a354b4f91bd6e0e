package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/pocketmoney-dev/pocketmoney/internal/activity"
	"github.com/pocketmoney-dev/pocketmoney/internal/config"
	"github.com/pocketmoney-dev/pocketmoney/internal/gitops"
	"github.com/pocketmoney-dev/pocketmoney/internal/id"
	"github.com/pocketmoney-dev/pocketmoney/internal/ledger"
	"github.com/pocketmoney-dev/pocketmoney/internal/logging"
	"github.com/pocketmoney-dev/pocketmoney/internal/model"
	"github.com/pocketmoney-dev/pocketmoney/internal/store"
)

// app is everything a command needs for one run against a data directory.
type app struct {
	dir string
	cfg *config.Config
	log zerolog.Logger
	kv  store.KV
	svc *ledger.Service
	out io.Writer
}

// openApp loads the config in dir (defaults if there is none), opens the
// store and builds the ledger service.
func openApp(cmd *cobra.Command, dir string) (*app, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(absDir, config.FileName))
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	log := logging.Console(cmd.ErrOrStderr(), level)

	kv, err := store.Open(cmd.Context(), cfg.StoreOptions(absDir))
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	storeLog := logging.WithComponent(log, logging.ComponentStore)
	storeLog.Debug().
		Str("backend", cfg.Store.Backend).Str("dir", absDir).Msg("store opened")

	svc := ledger.NewService(
		store.NewAdapter(kv),
		ledger.WithLogger(logging.WithComponent(log, logging.ComponentLedger)),
		ledger.WithRecorder(activity.NewLog(absDir)),
	)

	return &app{
		dir: absDir,
		cfg: cfg,
		log: logging.WithComponent(log, logging.ComponentCLI),
		kv:  kv,
		svc: svc,
		out: cmd.OutOrStdout(),
	}, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}

// dispatch runs c and prints the notification. Failures are returned as
// errors so the process exits non-zero.
func (a *app) dispatch(ctx context.Context, c ledger.Command) (ledger.Result, error) {
	res := ledger.Dispatch(ctx, a.svc, c)
	if res.OK {
		if res.Message != "" {
			fmt.Fprintln(a.out, res.Message)
		}
		return res, nil
	}

	if res.Err != nil {
		a.log.Debug().Err(res.Err).Msg("command failed")
	}
	if len(res.Errors) > 1 {
		for _, msg := range res.Errors[1:] {
			a.log.Warn().Msg(msg)
		}
	}
	return res, errors.New(res.Message)
}

// record commits the data directory when git history is enabled. A failed
// commit is only a warning; the ledger change is already stored.
func (a *app) record(ctx context.Context, message string) {
	if !a.cfg.Git.AutoCommit || !gitops.IsRepo(a.dir) {
		return
	}
	author := gitops.Author{Name: a.cfg.Git.AuthorName, Email: a.cfg.Git.AuthorEmail}
	hash, err := gitops.Commit(ctx, a.dir, message, author)
	switch {
	case errors.Is(err, gitops.ErrNothingToCommit):
	case err != nil:
		a.log.Warn().Err(err).Msg("git commit failed")
	default:
		a.log.Debug().Str("commit", hash).Msg("data committed")
	}
}

// resolveID expands a unique ID prefix within category. Unknown refs are
// returned unchanged so the ledger reports them as not found.
func (a *app) resolveID(ctx context.Context, category model.Category, ref string) (string, error) {
	snap, err := a.svc.All(ctx)
	if err != nil {
		return "", err
	}
	var ids []string
	for _, tx := range snap.Category(category).All() {
		ids = append(ids, tx.ID)
	}
	if full, ok := id.Resolve(ref, ids); ok {
		return full, nil
	}
	return ref, nil
}

func (a *app) money(d decimal.Decimal) string {
	return formatMoney(a.cfg.Display.Currency, d)
}

func formatMoney(currency string, d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + currency + d.Abs().StringFixed(2)
	}
	return currency + d.StringFixed(2)
}

// withApp opens the app for dir, runs fn and closes it.
func withApp(cmd *cobra.Command, dir string, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, dir)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}
