package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/lending-engine/internal/cache"
	"github.com/segyhp/lending-engine/internal/config"
	"github.com/segyhp/lending-engine/internal/handler"
	"github.com/segyhp/lending-engine/internal/observability"
	"github.com/segyhp/lending-engine/internal/repository"
	"github.com/segyhp/lending-engine/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to initialize database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	loanCache := cache.NewRedisCache(redisClient, cfg.GetCacheTTL(), logger)

	loanRepo := repository.NewLoanRepository(db)
	lenderRepo := repository.NewLenderRepository(db)
	entryRepo := repository.NewLenderTransactionRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	transactor := repository.NewTransactor(db)

	retries := cfg.Business.MaxConflictRetries
	loanService := service.NewLoanService(loanRepo, lenderRepo, transactor, loanCache, logger, retries)
	lenderService := service.NewLenderService(lenderRepo, entryRepo, transactor, logger, retries)
	collectionService := service.NewCollectionService(loanRepo, transactionRepo, transactor, loanCache, logger, retries)
	overdueService := service.NewOverdueService(loanRepo, loanCache, logger)

	settings := cfg.Settings()
	router := handler.NewRouter(handler.Handlers{
		Loans:       handler.NewLoanHandler(loanService, overdueService, settings, logger),
		Lenders:     handler.NewLenderHandler(lenderService, settings, logger),
		Collections: handler.NewCollectionHandler(collectionService, settings, logger),
		Health:      handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout()),
	}, logger)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "env", cfg.Server.Env, "driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logger.Error("server failed", "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}
