// Command migrate applies the embedded schema migrations to the configured
// database, or prints their status.
//
// Usage:
//
//	migrate          apply pending migrations
//	migrate -status  list migrations and their state
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/json-auditor/internal/app"
	"github.com/heartmarshall/json-auditor/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Printf("migrate: %v", err)
		os.Exit(1)
	}
}

func run() error {
	status := flag.Bool("status", false, "print migration status instead of applying")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *status {
		statuses, err := app.MigrationStatus(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		for _, s := range statuses {
			applied := "-"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.UTC().Format(time.RFC3339)
			}
			fmt.Printf("%-8s %-22s %s\n", s.State, applied, s.Source.Path)
		}
		return nil
	}

	if cfg.Database.Driver == config.DriverMemory {
		logger.Info("memory driver has no schema; nothing to do")
		return nil
	}

	_, closeStore, err := app.OpenStore(ctx, cfg.Database, logger, true)
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.Database.Driver, err)
	}
	closeStore()

	logger.Info("migrations up to date", slog.String("driver", cfg.Database.Driver))
	return nil
}
