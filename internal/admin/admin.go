// Package admin implements the bilancio-admin command line: schema
// migrations, user and token management, and ledger maintenance.
package admin

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"bilancio/internal/log"
	"bilancio/internal/storage"
)

type options struct {
	dbPath string
	logger *log.Logger
}

// NewRootCommand builds the command tree. defaultDB seeds the --db flag.
func NewRootCommand(defaultDB string, logger *log.Logger) *cobra.Command {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	opts := &options{logger: logger.WithComponent(log.ComponentAdmin)}

	root := &cobra.Command{
		Use:           "bilancio-admin",
		Short:         "Administer a bilancio database",
		Long:          "Run migrations, manage users and API tokens, and verify account balances.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", defaultDB, "SQLite database path")

	root.AddCommand(
		newMigrateCmd(opts),
		newUserCmd(opts),
		newTokenCmd(opts),
		newBalancesCmd(opts),
		newAlertsCmd(opts),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute(defaultDB string, logger *log.Logger) {
	root := NewRootCommand(defaultDB, logger)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// withRepo opens the repository for the duration of fn.
func (o *options) withRepo(ctx context.Context, fn func(context.Context, *storage.SQLiteRepository) error) error {
	repo, err := storage.NewSQLiteRepository(o.dbPath)
	if err != nil {
		return fmt.Errorf("open database %s: %w", o.dbPath, err)
	}
	defer repo.Close()
	return fn(ctx, repo)
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}
