package cmd

import (
	"errors"
	"fmt"

	"golang-backtest/config"
	"golang-backtest/pkg/postgres"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

var migrationsPath string

func newMigrate() (*migrate.Migrate, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	m, err := migrate.New(migrationsPath, postgres.URL(cfg.DB))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// withMigrate opens a migrate instance, runs fn and closes the instance.
func withMigrate(fn func(m *migrate.Migrate) error) error {
	m, err := newMigrate()
	if err != nil {
		return err
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			fmt.Printf("Migration close error: source=%v database=%v\n", srcErr, dbErr)
		}
	}()

	if err := fn(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all available database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrate(func(m *migrate.Migrate) error {
			if err := m.Up(); err != nil {
				return err
			}
			fmt.Println("Applied migrations successfully.")
			return nil
		})
	},
}

var downSteps int

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the last database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrate(func(m *migrate.Migrate) error {
			if err := m.Steps(-downSteps); err != nil {
				return err
			}
			fmt.Printf("Reverted %d migration(s) successfully.\n", downSteps)
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current migration version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrate(func(m *migrate.Migrate) error {
			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("No migration applied.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("Version %d (dirty: %t)\n", version, dirty)
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "file://migrations", "migrations source URL")
	downCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to revert")

	migrateCmd.AddCommand(upCmd)
	migrateCmd.AddCommand(downCmd)
	migrateCmd.AddCommand(versionCmd)
}
