package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/staffboard/staffboard/internal/app"
	"github.com/staffboard/staffboard/internal/broadcast"
	"github.com/staffboard/staffboard/internal/config"
	"github.com/staffboard/staffboard/internal/database"
	"github.com/staffboard/staffboard/internal/domain"
	"github.com/staffboard/staffboard/internal/logging"
	"github.com/staffboard/staffboard/internal/notify"
	"github.com/staffboard/staffboard/internal/redis"
	"github.com/staffboard/staffboard/internal/server"
	"github.com/staffboard/staffboard/internal/votes"
)

// subscriptionManager tracks one change-feed subscription per recipient
// with live clients on this instance, pumping events into the hub.
type subscriptionManager struct {
	pubsub *redis.NotificationPubSub
	hub    *broadcast.Hub

	mu   sync.Mutex
	subs map[uuid.UUID]*redis.Subscription
}

func newSubscriptionManager(pubsub *redis.NotificationPubSub) *subscriptionManager {
	return &subscriptionManager{
		pubsub: pubsub,
		subs:   make(map[uuid.UUID]*redis.Subscription),
	}
}

func (m *subscriptionManager) open(recipientID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.subs[recipientID]; exists {
		return
	}

	sub := m.pubsub.SubscribeRecipient(context.Background(), recipientID)
	m.subs[recipientID] = sub

	go func() {
		for event := range sub.Ch {
			if err := m.hub.Publish(event); err != nil {
				slog.Error("Failed to publish notification event to hub",
					"recipient_id", recipientID.String(), "error", err)
			}
		}
	}()
}

func (m *subscriptionManager) close(recipientID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub, exists := m.subs[recipientID]; exists {
		sub.Close()
		delete(m.subs, recipientID)
	}
}

func (m *subscriptionManager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for recipientID, sub := range m.subs {
		sub.Close()
		delete(m.subs, recipientID)
	}
}

func setupConfig() *config.Config {
	// Missing .env is fine; real deployments set env vars directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *redis.Client {
	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to create Redis client", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	return client
}

func runGracefulShutdown(srv *server.Server, hub *broadcast.Hub, subs *subscriptionManager) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		hub.Stop()
		subs.closeAll()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	// Repositories
	employeeRepo := database.NewEmployeeRepo(pool)
	postRepo := database.NewPostRepo(pool)
	commentRepo := database.NewCommentRepo(pool)
	announcementRepo := database.NewAnnouncementRepo(pool)
	voteRepo := database.NewVoteRepo(pool)
	notificationRepo := database.NewNotificationRepo(pool)
	settingsRepo := database.NewSettingsRepo(pool)

	// Vote toggling with Redis-backed debouncing
	debouncer := redis.NewDebouncer(redisClient)
	voteEngine := votes.NewEngine(voteRepo, debouncer, clock)

	// Notification pipeline; email channel only when configured
	pubsub := redis.NewNotificationPubSub(redisClient)
	var emailSender domain.EmailSender
	if cfg.ResendAPIKey != "" {
		emailSender = notify.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
		slog.Info("Email channel enabled", "from", cfg.EmailFrom)
	}
	pipeline := notify.NewPipeline(notificationRepo, settingsRepo, employeeRepo, pubsub, emailSender, clock)

	issuer := app.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL, clock)
	appSvc := app.NewService(employeeRepo, postRepo, commentRepo, announcementRepo,
		voteEngine, pipeline, issuer, clock, cfg.NotificationRetention)

	// WebSocket hub, subscribed to each recipient's change feed while
	// that recipient has live clients on this instance
	subs := newSubscriptionManager(pubsub)
	hub := broadcast.NewHub(subs.open, subs.close, clock, cfg.MaxClientsPerUser)
	subs.hub = hub

	srv := server.NewServer(cfg, appSvc, hub, pool, redisClient)

	done := runGracefulShutdown(srv, hub, subs)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
