package main

import (
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/giftwell/server/migrations"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := sql.Open("postgres", cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrations.Up(db); err != nil {
				return err
			}
			if err := migrations.Status(db); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}
