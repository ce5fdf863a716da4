package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"marketplace/internal/config"
	applog "marketplace/internal/log"
	"marketplace/internal/repos"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			// OpenDB applies the schema.
			db, err := repos.OpenDB(cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer db.Close()
			applog.Logger().WithField("dsn", cfg.DBDSN).Info("db.migrate")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo catalog, or a YAML seed file, into an empty database",
		Long: `Load categories, tenants, products and users into an empty database.

Examples:
  marketplace seed
  marketplace seed --file ./catalog.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := repos.OpenDB(cfg.DBDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if file == "" {
				return repos.SeedDemo(cmd.Context(), db)
			}
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			data, err := repos.LoadSeed(f)
			if err != nil {
				return err
			}
			return repos.Seed(cmd.Context(), db, data)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML seed file (defaults to the bundled demo catalog)")
	return cmd
}
