package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/bookkeeper/internal/api"
	"github.com/dvloznov/bookkeeper/internal/cache"
	"github.com/dvloznov/bookkeeper/internal/config"
	"github.com/dvloznov/bookkeeper/internal/events"
	"github.com/dvloznov/bookkeeper/internal/infra/inmemory"
	"github.com/dvloznov/bookkeeper/internal/infra/postgres"
	"github.com/dvloznov/bookkeeper/internal/ledger"
	"github.com/dvloznov/bookkeeper/internal/logger"
)

func main() {
	cfg := config.Load()
	log := logger.NewWithLevel(cfg.LogLevel)

	ctx := context.Background()

	// Wire the persistence backend.
	var (
		accounts     ledger.AccountRepository
		transactions ledger.TransactionRepository
		debts        ledger.DebtRepository
		txm          ledger.TransactionManager
	)
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn().Msg("Using in-memory storage - data will not survive a restart")
		store := inmemory.NewStore()
		accounts = store.Accounts()
		transactions = store.Transactions()
		debts = store.Debts()
		txm = store
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pool.Close()

		if cfg.IsProduction() {
			log.Info().Msg("Production environment - skipping automatic schema migration")
		} else if err := postgres.Migrate(ctx, pool.Pool, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema migrations")
		}

		accounts = postgres.NewAccountRepository(pool.Pool)
		transactions = postgres.NewTransactionRepository(pool.Pool)
		debts = postgres.NewDebtRepository(pool.Pool)
		txm = postgres.NewTransactionManager(pool.Pool, log)
	default:
		log.Fatal().Str("storage", cfg.Storage).Msg("Unknown STORAGE value")
	}

	// Optional read cache.
	var cacheStore cache.Store
	if cfg.RedisAddr != "" {
		redisStore, err := cache.NewRedisStore(cache.DefaultRedisConfig(cfg.RedisAddr), log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisStore.Close()
		cacheStore = redisStore
		log.Info().Str("addr", cfg.RedisAddr).Msg("Read cache enabled")
	}

	// Optional event publisher.
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		rmq, err := events.NewRabbitMQPublisher(events.RabbitMQConfig{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
		}
		defer rmq.Close()
		publisher = rmq
		log.Info().Str("exchange", cfg.RabbitMQ.Exchange).Msg("Event publishing enabled")
	}

	svc := ledger.NewService(accounts, transactions, debts, txm, cacheStore, publisher, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(svc, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
