/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>
*/
package cmd

import (
	"context"
	"os"

	"github.com/gnames/gn"
	"github.com/gnames/gnotu/internal/iodb"
	"github.com/gnames/gnotu/internal/ioschema"
	"github.com/gnames/gnotu/internal/iosql"
	"github.com/spf13/cobra"
)

func getCreateCmd() *cobra.Command {
	var force, migrate bool

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create database schema",
		Long: `Create the portal schema.

For the PostgreSQL store this command:
  1. Connects to PostgreSQL using configuration settings
  2. Checks for existing tables and prompts for confirmation
  3. Creates taxon, sample and abundance tables using GORM AutoMigrate
  4. Creates vocabulary tables and sample columns of contextual fields
  5. Sets "C" collation on labels so they sort byte-wise

For the sqlite store the same tables are created in the database file.

Use --migrate to add columns of new contextual fields to an existing
schema without dropping data.

Examples:
  gnotu create
  gnotu create --force
  gnotu create --migrate
  gnotu create --store sqlite`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Store.Backend == "sqlite" {
				return runCreateSQLite(cmd.Context(), force, migrate)
			}
			return runCreate(cmd.Context(), force, migrate)
		},
	}

	createCmd.Flags().BoolVarP(&force, "force", "f",
		false, "drop existing tables without confirmation")
	createCmd.Flags().BoolVarP(&migrate, "migrate", "m",
		false, "update existing schema, keep data")

	return createCmd
}

func runCreate(ctx context.Context, force, migrate bool) error {
	op := iodb.NewPgxOperator()
	if err := op.Connect(ctx, &cfg.Database, cfg.JobsNumber); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	defer op.Close()

	gn.Info("Connected to database: <em>%s@%s:%d/%s</em>",
		cfg.Database.User, cfg.Database.Host,
		cfg.Database.Port, cfg.Database.Database)

	sm := ioschema.NewManager(op, reg)
	if migrate {
		if err := sm.Migrate(ctx, cfg); err != nil {
			gn.PrintErrorMessage(err)
			return err
		}
		gn.Info("Database schema is migrated")
		return clearCache(ctx)
	}

	hasTables, err := op.HasTables(ctx)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if hasTables {
		ok, err := dropAllowed(force)
		if err != nil || !ok {
			return err
		}
		gn.Info("Dropping all existing tables...")
		if err = op.DropAllTables(ctx); err != nil {
			gn.PrintErrorMessage(err)
			return err
		}
	}

	gn.Info("Creating schema using GORM AutoMigrate...")
	if err = sm.Create(ctx, cfg); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	gn.Info(`Database schema creation complete!

Next steps:
  - import portal data
  - run 'gnotu optimize'`)
	return clearCache(ctx)
}

func runCreateSQLite(ctx context.Context, force, migrate bool) error {
	path := cfg.SQLitePath()
	if _, err := os.Stat(path); err == nil && !migrate {
		ok, err := dropAllowed(force)
		if err != nil || !ok {
			return err
		}
		if err = os.Remove(path); err != nil {
			gn.PrintErrorMessage(err)
			return err
		}
	}

	s, err := iosql.OpenSQLite(ctx, path, reg)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	defer s.Close()

	if err = s.CreateSchema(ctx); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	gn.Info("Schema is ready in <em>%s</em>", path)
	return clearCache(ctx)
}

func dropAllowed(force bool) (bool, error) {
	if force {
		gn.Info("Existing data will be dropped (--force enabled)")
		return true, nil
	}
	gn.Warn("Database contains existing tables.")
	gn.Warn("Creating schema will drop ALL existing tables and data.")
	ok, err := confirm(os.Stdin, "Do you want to continue?")
	if err != nil {
		gn.Warn("Failed to read user input")
		return false, err
	}
	if !ok {
		gn.Info("Aborted. No changes made.")
	}
	return ok, nil
}
