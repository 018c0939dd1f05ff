// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/config"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return newMigrateCmd(nil)
}

func newMigrateCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long: `Apply, roll back, or inspect the embedded PostgreSQL migrations.
Without a subcommand, all pending migrations are applied.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m Migrator) error {
				return migrateUp(cmd, m)
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m Migrator) error {
				return migrateUp(cmd, m)
			})
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return oops.Code("INVALID_STEPS").With("steps", steps).Errorf("--steps must be at least 1")
			}
			return withMigrator(cmd, deps, func(m Migrator) error {
				if err := m.Steps(-steps); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "roll back").With("steps", steps).Wrap(err)
				}
				cmd.Printf("Rolled back %d migration(s)\n", steps)
				return printStatus(cmd, m)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current schema version and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, deps, func(m Migrator) error {
				return printStatus(cmd, m)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force <version>",
		Short: "Set the schema version without running migrations",
		Long: `Set the recorded schema version and clear the dirty flag. Use this to
recover after a failed migration has been repaired by hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, deps, func(m Migrator) error {
				if err := m.Force(version); err != nil {
					return oops.Code("MIGRATION_FAILED").With("operation", "force version").With("version", version).Wrap(err)
				}
				cmd.Printf("Forced schema version to %d\n", version)
				return nil
			})
		},
	})

	return cmd
}

// withMigrator opens a migrator for the configured database and closes it
// after fn returns.
func withMigrator(cmd *cobra.Command, deps *Deps, fn func(Migrator) error) error {
	deps = deps.withDefaults()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return oops.Code("CONFIG_INVALID").
			With("driver", cfg.Database.Driver).
			Errorf("migrations require the %s driver", config.DriverPostgres)
	}
	if err := cfg.Database.Validate(); err != nil {
		return err
	}

	m, err := deps.MigratorFactory(cfg.Database.URL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			cmd.PrintErrf("warning: failed to close migrator: %v\n", closeErr)
		}
	}()

	return fn(m)
}

func migrateUp(cmd *cobra.Command, m Migrator) error {
	cmd.Println("Running migrations...")
	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	cmd.Println("Migrations completed successfully")
	return printStatus(cmd, m)
}

func printStatus(cmd *cobra.Command, m Migrator) error {
	status, err := m.Status()
	if err != nil {
		return err
	}

	if status.Version == 0 {
		cmd.Println("Schema version: none")
	} else {
		line := fmt.Sprintf("Schema version: %d (%s)", status.Version, status.Name)
		if status.Dirty {
			line += " [dirty]"
		}
		cmd.Println(line)
	}

	if len(status.Pending) == 0 {
		cmd.Println("Pending: none")
		return nil
	}
	pending := make([]string, len(status.Pending))
	for i, v := range status.Pending {
		pending[i] = fmt.Sprintf("%d", v)
	}
	cmd.Printf("Pending: %s\n", strings.Join(pending, ", "))
	return nil
}

// parseForceVersion reads a version number the way fmt.Sscanf does: leading
// whitespace is skipped and parsing stops at the first non-digit.
func parseForceVersion(s string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(s, "%d", &version); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be an integer: %q", s)
	}
	return version, nil
}
