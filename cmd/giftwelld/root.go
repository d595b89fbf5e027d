package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/giftwell/server/internal/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "giftwelld",
		Short: "Gift wishlist backend with realtime reservation updates",
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSeedCmd(),
	)

	return root
}

// setup loads configuration and builds the process logger. Every
// subcommand starts here so LOG_LEVEL applies uniformly.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	lvl, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	log, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}
	zap.ReplaceGlobals(log)

	return cfg, log, nil
}
