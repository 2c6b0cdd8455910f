package server

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/staffboard/staffboard/internal/app"
	"github.com/staffboard/staffboard/internal/broadcast"
	"github.com/staffboard/staffboard/internal/config"
	"github.com/staffboard/staffboard/internal/domain"
	apperrors "github.com/staffboard/staffboard/internal/errors"
)

// AppService is the application layer surface the HTTP handlers use.
type AppService interface {
	Register(ctx context.Context, employeeNo, name, email, password string, departmentID, positionID *uuid.UUID) (*domain.Employee, error)
	Login(ctx context.Context, employeeNo, password string) (string, *domain.Employee, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (*domain.Employee, error)
	ApproveEmployee(ctx context.Context, id uuid.UUID) error
	DeactivateEmployee(ctx context.Context, id uuid.UUID) error

	CreatePost(ctx context.Context, authorID uuid.UUID, title, body string) (*domain.Post, error)
	GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	ListPosts(ctx context.Context, limit, offset int) ([]domain.Post, error)
	CreateComment(ctx context.Context, postID, authorID uuid.UUID, body string) (*domain.Comment, error)
	ListComments(ctx context.Context, postID uuid.UUID) ([]domain.Comment, error)

	ToggleCommentVote(ctx context.Context, commentID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error)
	TogglePostVote(ctx context.Context, postID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error)

	PublishAnnouncement(ctx context.Context, authorID uuid.UUID, title, body string, priority domain.Priority, targetDepartments, targetPositions []uuid.UUID) (*domain.Announcement, domain.FanOutResult, error)
	GetAnnouncement(ctx context.Context, id uuid.UUID) (*domain.Announcement, error)
	ListAnnouncements(ctx context.Context, limit, offset int) ([]domain.Announcement, error)

	ListNotifications(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error)
	MarkNotificationRead(ctx context.Context, notificationID, recipientID uuid.UUID) (*domain.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, recipientID uuid.UUID) (int, error)
	GetNotificationSettings(ctx context.Context, employeeID uuid.UUID) (*domain.NotificationSettings, error)
	UpdateNotificationSettings(ctx context.Context, settings domain.NotificationSettings) error

	VerifyToken(token string) (*app.Claims, error)
}

// postgresHealthChecker is a minimal interface for PostgreSQL health checks
type postgresHealthChecker interface {
	Ping(ctx context.Context) error
}

// redisHealthChecker is a minimal interface for Redis health checks
type redisHealthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	app       AppService
	hub       *broadcast.Hub
	limits    *ConnectionLimits
	postgres  postgresHealthChecker
	redis     redisHealthChecker
	startTime time.Time
}

func NewServer(cfg *config.Config, appSvc AppService, hub *broadcast.Hub, postgres postgresHealthChecker, redis redisHealthChecker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    cfg,
		app:       appSvc,
		hub:       hub,
		limits:    NewConnectionLimits(defaultGlobalConnLimit, cfg.MaxClientsPerUser, defaultConnRate, defaultConnBurst),
		postgres:  postgres,
		redis:     redis,
		startTime: time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
