// Command cleanup-notifications deletes read notifications older than the
// configured retention window. It is meant to run on a schedule (cron or
// a Kubernetes CronJob); Redis-based leader election makes concurrent runs
// across instances safe.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/staffboard/staffboard/internal/app"
	"github.com/staffboard/staffboard/internal/config"
	"github.com/staffboard/staffboard/internal/database"
	"github.com/staffboard/staffboard/internal/logging"
	"github.com/staffboard/staffboard/internal/redis"
)

const runTimeout = 5 * time.Minute

func main() {
	dryRun := flag.Bool("dry-run", false, "Log what would be purged without deleting")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to create Redis client", "error", err)
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	if err := run(ctx, cfg, pool, redisClient, *dryRun); err != nil {
		slog.Error("Cleanup failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, dryRun bool) error {
	clock := clockwork.NewRealClock()
	cutoff := clock.Now().UTC().Add(-cfg.NotificationRetention)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	instanceID := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	elector := app.NewLeaderElector(redisClient.Underlying(), instanceID)
	acquired, err := elector.TryAcquire(ctx)
	if err != nil {
		return fmt.Errorf("leader election failed: %w", err)
	}
	if !acquired {
		slog.Info("Another instance holds the purge lock, exiting", "instance_id", instanceID)
		return nil
	}
	defer func() {
		if err := elector.Release(ctx); err != nil {
			slog.Warn("Failed to release purge lock", "error", err)
		}
	}()

	slog.Info("Purging read notifications",
		"cutoff", cutoff.Format(time.RFC3339),
		"retention", cfg.NotificationRetention.String(),
		"dry_run", dryRun,
	)

	notificationRepo := database.NewNotificationRepo(pool)
	if dryRun {
		slog.Info("Dry run, nothing deleted")
		return nil
	}

	purged, err := notificationRepo.PurgeRead(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	slog.Info("Purge complete", "purged", purged)
	return nil
}
