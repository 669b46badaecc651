package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skillswap/skillswap-hub/internal/bootstrap"
	"github.com/skillswap/skillswap-hub/internal/infrastructure/persistence/postgres"
)

var errNoDatabase = errors.New("DATABASE_URL is not set")

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the PostgreSQL schema",
	Long: `Manage the PostgreSQL schema.

Examples:
  # Apply all pending migrations
  swapctl migrate up

  # Roll back the latest migration
  swapctl migrate down

  # Show applied and pending migrations
  swapctl migrate status`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(ctx context.Context, m *postgres.Migrator) error {
			applied, err := m.Migrate(ctx)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d\n", v)
			}
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(ctx context.Context, m *postgres.Migrator) error {
			v, err := m.Rollback(ctx)
			if err != nil {
				return err
			}
			if v == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d\n", v)
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd.Context(), func(ctx context.Context, m *postgres.Migrator) error {
			status, err := m.Status(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED AT")
			for _, mg := range status {
				applied := "pending"
				if mg.IsApplied {
					applied = mg.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", mg.Version, mg.Name, applied)
			}
			return tw.Flush()
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

// withMigrator opens a connection for the duration of fn.
func withMigrator(ctx context.Context, fn func(context.Context, *postgres.Migrator) error) error {
	if cfg.Database.URL == "" {
		return errNoDatabase
	}

	conn, err := postgres.NewConnection(ctx, bootstrap.PostgresConfig(cfg.Database))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer conn.Close()

	return fn(ctx, postgres.NewMigrator(conn))
}
