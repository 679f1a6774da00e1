package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

func newMigrateCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or create SQL schema migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := cfg.migrator()
			if err != nil {
				return err
			}
			defer closeMigrator(m)
			if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("database migration failed: %w", err)
			}
			log.Println("database migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return errors.New("--steps must be positive")
			}
			m, err := cfg.migrator()
			if err != nil {
				return err
			}
			defer closeMigrator(m)
			if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("database rollback failed: %w", err)
			}
			log.Printf("rolled back %d migrations", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back (env: TOPTEN_STEPS)")

	create := &cobra.Command{
		Use:   "new NAME",
		Short: "Create an empty up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			upPath, downPath, err := createMigration(cfg.migrationsDir, args[0], time.Now())
			if err != nil {
				return err
			}
			log.Printf("created %s and %s", upPath, downPath)
			return nil
		},
	}

	cmd.AddCommand(up, down, create)
	return cmd
}

func (c *Config) migrator() (*migrate.Migrate, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	m, err := migrate.New("file://"+filepath.ToSlash(c.migrationsDir), c.databaseURL)
	if err != nil {
		return nil, fmt.Errorf("migration setup failed: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
		log.Printf("migration close failed source=%v database=%v", srcErr, dbErr)
	}
}

// createMigration writes a timestamped migration pair and refuses to
// overwrite existing files.
func createMigration(dir, name string, now time.Time) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", errors.New("migration name is required")
	}
	if strings.ContainsAny(name, " /\\") {
		return "", "", errors.New("migration name must not contain spaces or slashes")
	}

	base := fmt.Sprintf("%s_%s", now.UTC().Format("20060102150405"), name)
	upPath := filepath.Join(dir, base+".up.sql")
	downPath := filepath.Join(dir, base+".down.sql")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create migrations dir: %w", err)
	}
	if err := writeNewFile(upPath, "-- up migration\n"); err != nil {
		return "", "", err
	}
	if err := writeNewFile(downPath, "-- down migration\n"); err != nil {
		return "", "", err
	}
	return upPath, downPath, nil
}

func writeNewFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
