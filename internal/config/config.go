package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	JWTTTL      time.Duration
	LogLevel    string
	LogFormat   string

	// Email channel (optional; in-app notifications work without it)
	ResendAPIKey string
	EmailFrom    string

	// WebSocket limits
	MaxClientsPerUser int

	// Retention window for cmd/cleanup-notifications
	NotificationRetention time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisURL:              getEnv("REDIS_URL", ""),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "text"),
		ResendAPIKey:          getEnv("RESEND_API_KEY", ""),
		EmailFrom:             getEnv("EMAIL_FROM", ""),
		MaxClientsPerUser:     5,
		JWTTTL:                24 * time.Hour,
		NotificationRetention: 30 * 24 * time.Hour,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(cfg.JWTSecret))
	}

	// Email config: both must be set together
	if cfg.ResendAPIKey != "" && cfg.EmailFrom == "" {
		return nil, fmt.Errorf("EMAIL_FROM is required when RESEND_API_KEY is set")
	}

	if v := os.Getenv("MAX_CLIENTS_PER_USER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("MAX_CLIENTS_PER_USER must be a positive integer, got %q", v)
		}
		cfg.MaxClientsPerUser = n
	}

	if v := os.Getenv("NOTIFICATION_RETENTION_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 1 {
			return nil, fmt.Errorf("NOTIFICATION_RETENTION_DAYS must be a positive integer, got %q", v)
		}
		cfg.NotificationRetention = time.Duration(days) * 24 * time.Hour
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
