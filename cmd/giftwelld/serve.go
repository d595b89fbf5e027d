package main

import (
	"github.com/spf13/cobra"

	"github.com/giftwell/server/internal/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			srv, err := app.NewServer(cfg, log)
			if err != nil {
				return err
			}
			return srv.Run()
		},
	}
}
