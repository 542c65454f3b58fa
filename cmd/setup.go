package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/brutaldon/internal/formatter"
	"github.com/desertthunder/brutaldon/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("%s\n", formatter.OK("Config written to "+configPath))
	r.writePlain("%s\n", formatter.Hint("A random session.secret was generated; keep this file private."))
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config, err := r.loadConfig(configPath)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		config = shared.DefaultConfig()
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	pending, err := shared.PendingMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to inspect migrations: %w", err)
	}

	r.logger.Info("running database migrations", "pending", len(pending))
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)

	r.writePlain("%s\n", formatter.OK(fmt.Sprintf("Applied %d migration(s) to %s", len(pending), config.Database.Path)))
	return nil
}

// SetupRollback reverts the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := shared.AppliedMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to inspect migrations: %w", err)
	}
	if len(applied) == 0 {
		r.writePlain("%s\n", formatter.Warn("No migrations to roll back"))
		return nil
	}

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	version := applied[len(applied)-1]
	r.logger.Info("rolled back migration", "version", version)
	r.writePlain("%s\n", formatter.OK(fmt.Sprintf("Rolled back migration %04d", version)))
	return nil
}

// SetupStatus prints applied and pending migration versions.
func (r *Runner) SetupStatus(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := shared.AppliedMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to inspect migrations: %w", err)
	}
	pending, err := shared.PendingMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to inspect migrations: %w", err)
	}

	versions := func(vs []int) string {
		if len(vs) == 0 {
			return "none"
		}
		parts := make([]string, len(vs))
		for i, v := range vs {
			parts[i] = fmt.Sprintf("%04d", v)
		}
		return strings.Join(parts, ", ")
	}

	pendingVersions := make([]int, len(pending))
	for i, m := range pending {
		pendingVersions[i] = m.Version
	}

	r.writePlain("%s\n", formatter.Title("Migrations: "+config.Database.Path))
	r.writePlain("applied: %s\n", versions(applied))
	r.writePlain("pending: %s\n", versions(pendingVersions))
	if len(pending) > 0 {
		r.writePlainln("%s", formatter.Hint("Run 'brutaldon setup database' to apply "+strconv.Itoa(len(pending))+" pending migration(s)."))
	}
	return nil
}
