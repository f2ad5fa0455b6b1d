package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/lending-engine/internal/cache"
	"github.com/segyhp/lending-engine/internal/config"
	"github.com/segyhp/lending-engine/internal/observability"
	"github.com/segyhp/lending-engine/internal/repository"
	"github.com/segyhp/lending-engine/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// sweepTimeout bounds a single overdue pass so a stuck database cannot pile
// up overlapping runs.
const sweepTimeout = 30 * time.Minute

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format).With("component", "scheduler")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	overdueService := service.NewOverdueService(
		repository.NewLoanRepository(db),
		cache.NewRedisCache(redisClient, cfg.GetCacheTTL(), logger),
		logger,
	)

	loc := cfg.GetSchedulerLocation()
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	if _, err := c.AddFunc(cfg.Scheduler.OverdueSpec, func() {
		runSweep(ctx, overdueService, logger, loc)
	}); err != nil {
		logger.Error("invalid overdue schedule", "spec", cfg.Scheduler.OverdueSpec, "error", err)
		os.Exit(1)
	}

	c.Start()
	logger.Info("scheduler started", "overdue_spec", cfg.Scheduler.OverdueSpec, "timezone", loc.String())

	<-ctx.Done()
	logger.Info("shutting down scheduler")

	// Stop returns a context that is done once running jobs finish.
	<-c.Stop().Done()
	logger.Info("scheduler stopped")
}

func runSweep(ctx context.Context, overdue *service.OverdueService, logger *slog.Logger, loc *time.Location) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	started := time.Now()
	if _, err := overdue.Sweep(ctx, time.Now().In(loc)); err != nil {
		logger.ErrorContext(ctx, "overdue sweep failed", "error", err, "duration", time.Since(started))
	}
}
