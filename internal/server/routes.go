package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Auth
	s.echo.POST("/api/auth/register", s.handleRegister)
	s.echo.POST("/api/auth/login", s.handleLogin)

	// Employees
	s.echo.GET("/api/me", s.handleMe, s.requireAuth)
	s.echo.POST("/api/employees/:id/approve", s.handleApproveEmployee, s.requireAuth, s.requireAdmin)
	s.echo.POST("/api/employees/:id/deactivate", s.handleDeactivateEmployee, s.requireAuth, s.requireAdmin)

	// Board
	s.echo.POST("/api/posts", s.handleCreatePost, s.requireAuth)
	s.echo.GET("/api/posts", s.handleListPosts, s.requireAuth)
	s.echo.GET("/api/posts/:id", s.handleGetPost, s.requireAuth)
	s.echo.POST("/api/posts/:id/comments", s.handleCreateComment, s.requireAuth)
	s.echo.GET("/api/posts/:id/comments", s.handleListComments, s.requireAuth)

	// Votes
	s.echo.POST("/api/posts/:id/vote", s.handlePostVote, s.requireAuth)
	s.echo.POST("/api/comments/:id/vote", s.handleCommentVote, s.requireAuth)

	// Announcements (publishing is admin-only)
	s.echo.POST("/api/announcements", s.handlePublishAnnouncement, s.requireAuth, s.requireAdmin)
	s.echo.GET("/api/announcements", s.handleListAnnouncements, s.requireAuth)
	s.echo.GET("/api/announcements/:id", s.handleGetAnnouncement, s.requireAuth)

	// Notifications
	s.echo.GET("/api/notifications", s.handleListNotifications, s.requireAuth)
	s.echo.GET("/api/notifications/unread-count", s.handleUnreadCount, s.requireAuth)
	s.echo.POST("/api/notifications/:id/read", s.handleMarkRead, s.requireAuth)
	s.echo.POST("/api/notifications/read-all", s.handleMarkAllRead, s.requireAuth)
	s.echo.GET("/api/notifications/settings", s.handleGetSettings, s.requireAuth)
	s.echo.PUT("/api/notifications/settings", s.handleUpdateSettings, s.requireAuth)

	// Live notification feed
	s.echo.GET("/ws/notifications", s.handleWebSocket, s.requireAuth)
}
