package main

import (
	"flag"
	"fmt"
	"os"

	"expenses/internal/config"
	"expenses/internal/db"
	"expenses/internal/logging"

	"go.uber.org/zap"
)

func main() {
	down := flag.Int("down", 0, "revert the given number of migrations instead of applying pending ones")
	showVersion := flag.Bool("version", false, "print the current schema version and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	switch {
	case *showVersion:
		version, dirty, err := db.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to read schema version", zap.Error(err))
		}
		logger.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	case *down > 0:
		if err := db.MigrateDown(cfg.DatabaseURL, *down); err != nil {
			logger.Fatal("failed to revert migrations", zap.Error(err))
		}
		logger.Info("migrations reverted", zap.Int("steps", *down))
	default:
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
		logger.Info("migrations applied")
	}
}
