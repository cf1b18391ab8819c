package admin

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

func newMigrateCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := storage.RunMigrations(o.dbPath); err != nil {
				return err
			}
			o.logger.Info("Migrations applied", "db_path", o.dbPath)
			return printVersion(cmd, o.dbPath)
		},
	}, &cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVersion(cmd, o.dbPath)
		},
	})
	return cmd
}

func printVersion(cmd *cobra.Command, dbPath string) error {
	version, dirty, err := storage.MigrationVersion(dbPath)
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", version, state)
	return nil
}

func newUserCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Create or delete users",
	}

	var email, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user with the default categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withRepo(cmd.Context(), func(ctx context.Context, repo *storage.SQLiteRepository) error {
				u, err := repo.CreateUser(ctx, core.User{Email: email, Name: name})
				if err != nil {
					return err
				}
				o.logger.Info("User created", log.FieldOwnerID, u.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s>\n", u.ID, u.Email)
				return nil
			})
		},
	}
	create.Flags().StringVar(&email, "email", "", "user email (required)")
	create.Flags().StringVar(&name, "name", "", "display name")
	_ = create.MarkFlagRequired("email")

	del := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user and everything they own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return o.withRepo(cmd.Context(), func(ctx context.Context, repo *storage.SQLiteRepository) error {
				if err := repo.DeleteUser(ctx, id); err != nil {
					return err
				}
				o.logger.Info("User deleted", log.FieldOwnerID, id)
				fmt.Fprintf(cmd.OutOrStdout(), "deleted user %d\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(create, del)
	return cmd
}

func newTokenCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API tokens",
	}

	var label string
	issue := &cobra.Command{
		Use:   "issue <user-id>",
		Short: "Issue an API token; it is printed once and stored hashed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return o.withRepo(cmd.Context(), func(ctx context.Context, repo *storage.SQLiteRepository) error {
				token, err := repo.IssueToken(ctx, id, label)
				if err != nil {
					return err
				}
				o.logger.Info("Token issued", log.FieldOwnerID, id, "label", label)
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	issue.Flags().StringVar(&label, "label", "", "free-form token label")

	cmd.AddCommand(issue)
	return cmd
}

func newBalancesCmd(o *options) *cobra.Command {
	var owner int64
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Compare cached account balances with the transaction log",
	}
	cmd.PersistentFlags().Int64Var(&owner, "owner", 0, "limit to one user id (0 checks everyone)")

	verify := &cobra.Command{
		Use:   "verify",
		Short: "Report accounts whose balance drifted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withRepo(cmd.Context(), func(ctx context.Context, repo *storage.SQLiteRepository) error {
				drifted, err := repo.VerifyBalances(ctx, owner)
				if err != nil {
					return err
				}
				printChecks(cmd, drifted)
				if len(drifted) > 0 {
					return fmt.Errorf("%d account balance(s) drifted; run 'balances rebuild'", len(drifted))
				}
				fmt.Fprintln(cmd.OutOrStdout(), "all balances consistent")
				return nil
			})
		},
	}

	rebuild := &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute drifted balances from the transaction log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withRepo(cmd.Context(), func(ctx context.Context, repo *storage.SQLiteRepository) error {
				fixed, err := repo.RebuildBalances(ctx, owner)
				if err != nil {
					return err
				}
				printChecks(cmd, fixed)
				o.logger.Info("Balances rebuilt", "fixed", len(fixed))
				fmt.Fprintf(cmd.OutOrStdout(), "%d account(s) corrected\n", len(fixed))
				return nil
			})
		},
	}

	cmd.AddCommand(verify, rebuild)
	return cmd
}

func printChecks(cmd *cobra.Command, checks []storage.BalanceCheck) {
	for _, c := range checks {
		fmt.Fprintf(cmd.OutOrStdout(), "account %d (%s, owner %d): cached %s, expected %s, drift %s\n",
			c.AccountID, c.Name, c.OwnerID, c.Cached, c.Expected, c.Drift())
	}
}

func newAlertsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Budget alert maintenance",
	}
	var concurrency int
	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Evaluate every active budget once and raise pending alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withRepo(cmd.Context(), func(ctx context.Context, repo *storage.SQLiteRepository) error {
				budgets := services.NewBudgetService(repo, concurrency)
				raised, err := services.NewAlertService(repo, budgets, o.logger).Sweep(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d alert(s) raised\n", raised)
				return nil
			})
		},
	}
	sweep.Flags().IntVar(&concurrency, "concurrency", services.DefaultSummaryConcurrency, "budgets evaluated in parallel")
	cmd.AddCommand(sweep)
	return cmd
}
