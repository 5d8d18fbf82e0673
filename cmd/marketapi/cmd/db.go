package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/gigmarket/marketapi/internal/db/bunx"
	"github.com/gigmarket/marketapi/internal/migrations"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management commands",
	Long:  `Commands for managing database migrations and the demo seed data.`,
}

// withMigrator opens the configured database and hands a migrator to fn.
func withMigrator(ctx context.Context, fn func(*migrate.Migrator) error) error {
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer bunx.Close(db)

	return fn(migrate.NewMigrator(db, migrations.Migrations))
}

// locked runs fn while holding the migration lock.
func locked(ctx context.Context, m *migrate.Migrator, fn func() error) error {
	if err := m.Lock(ctx); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		if err := m.Unlock(ctx); err != nil {
			logger.Error(err, "failed to release migration lock")
		}
	}()
	return fn()
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize migration tables",
	Long:  `Creates the migration tracking tables in the database. Run this once during initial setup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withMigrator(ctx, func(m *migrate.Migrator) error {
			if err := m.Init(ctx); err != nil {
				return fmt.Errorf("failed to initialize migrator: %w", err)
			}
			logger.Info("migration tables initialized")
			return nil
		})
	},
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Applies all pending migrations, including the demo identity seed, under the migration lock.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withMigrator(ctx, func(m *migrate.Migrator) error {
			if err := m.Init(ctx); err != nil {
				return fmt.Errorf("failed to initialize migrator: %w", err)
			}
			return locked(ctx, m, func() error {
				group, err := m.Migrate(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				if group.IsZero() {
					logger.Info("no new migrations to apply")
				} else {
					logger.Info("applied migration group", "group", group.ID, "migrations", group.Migrations.String())
				}
				return nil
			})
		})
	},
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Rollback last migration group",
	Long:  `Rolls back the most recently applied migration group under the migration lock.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withMigrator(ctx, func(m *migrate.Migrator) error {
			return locked(ctx, m, func() error {
				group, err := m.Rollback(ctx)
				if err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				if group.IsZero() {
					logger.Info("no migrations to roll back")
				} else {
					logger.Info("rolled back migration group", "group", group.ID)
				}
				return nil
			})
		})
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long:  `Displays applied and pending migrations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withMigrator(ctx, func(m *migrate.Migrator) error {
			ms, err := m.MigrationsWithStatus(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printMigrationStatus(cmd.OutOrStdout(), ms)
			return nil
		})
	},
}

func printMigrationStatus(w io.Writer, ms migrate.MigrationSlice) {
	fmt.Fprintln(w, "Migrations:")
	for _, m := range ms {
		status := "pending"
		if m.GroupID > 0 {
			status = fmt.Sprintf("applied (group %d)", m.GroupID)
		}
		fmt.Fprintf(w, "  %s: %s\n", m.Name, status)
	}
}

// openDB is shared by commands that work on rows rather than schema.
func openDB(ctx context.Context) (*bun.DB, error) {
	db, err := bunx.NewDB(ctx, cfg.DatabaseURL, cfg.MaxDBConnections)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbRollbackCmd)
	dbCmd.AddCommand(dbStatusCmd)
}
