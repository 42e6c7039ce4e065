// Command migrate applies pending schema migrations and exits. Production
// deployments run it as a release step; other environments migrate
// automatically when the API server starts.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/dvloznov/bookkeeper/internal/config"
	"github.com/dvloznov/bookkeeper/internal/infra/postgres"
	"github.com/dvloznov/bookkeeper/internal/logger"
)

func main() {
	databaseURL := flag.String("database-url", "", "PostgreSQL connection string (defaults to DATABASE_URL)")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall migration timeout")
	flag.Parse()

	cfg := config.Load()
	log := logger.NewWithLevel(cfg.LogLevel)

	connString := *databaseURL
	if connString == "" {
		connString = cfg.DatabaseURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, connString)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool.Pool, log); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	log.Info().Msg("Migrations up to date")
	os.Exit(0)
}
