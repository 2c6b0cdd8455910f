package server

import (
	"github.com/labstack/echo/v4"
	"github.com/staffboard/staffboard/internal/domain"
	apperrors "github.com/staffboard/staffboard/internal/errors"
)

type updateSettingsRequest struct {
	EmailEnabled       bool `json:"email_enabled"`
	PushEnabled        bool `json:"push_enabled"`
	KeywordAlerts      bool `json:"keyword_alerts"`
	AnnouncementAlerts bool `json:"announcement_alerts"`
	CommentAlerts      bool `json:"comment_alerts"`
}

func (s *Server) handleListNotifications(c echo.Context) error {
	recipientID, err := employeeID(c)
	if err != nil {
		return err
	}

	limit := queryInt(c, "limit", 0)
	notifications, err := s.app.ListNotifications(c.Request().Context(), recipientID, limit)
	if err != nil {
		return err
	}

	if notifications == nil {
		notifications = []domain.Notification{}
	}
	return c.JSON(200, notifications)
}

func (s *Server) handleUnreadCount(c echo.Context) error {
	recipientID, err := employeeID(c)
	if err != nil {
		return err
	}

	count, err := s.app.UnreadCount(c.Request().Context(), recipientID)
	if err != nil {
		return err
	}

	return c.JSON(200, map[string]int{"unread": count})
}

func (s *Server) handleMarkRead(c echo.Context) error {
	recipientID, err := employeeID(c)
	if err != nil {
		return err
	}

	notificationID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	notification, err := s.app.MarkNotificationRead(c.Request().Context(), notificationID, recipientID)
	if err != nil {
		return err
	}

	return c.JSON(200, notification)
}

func (s *Server) handleMarkAllRead(c echo.Context) error {
	recipientID, err := employeeID(c)
	if err != nil {
		return err
	}

	marked, err := s.app.MarkAllNotificationsRead(c.Request().Context(), recipientID)
	if err != nil {
		return err
	}

	return c.JSON(200, map[string]int{"marked": marked})
}

func (s *Server) handleGetSettings(c echo.Context) error {
	id, err := employeeID(c)
	if err != nil {
		return err
	}

	settings, err := s.app.GetNotificationSettings(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(200, settings)
}

func (s *Server) handleUpdateSettings(c echo.Context) error {
	id, err := employeeID(c)
	if err != nil {
		return err
	}

	var req updateSettingsRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	settings := domain.NotificationSettings{
		EmployeeID:         id,
		EmailEnabled:       req.EmailEnabled,
		PushEnabled:        req.PushEnabled,
		KeywordAlerts:      req.KeywordAlerts,
		AnnouncementAlerts: req.AnnouncementAlerts,
		CommentAlerts:      req.CommentAlerts,
	}
	if err := s.app.UpdateNotificationSettings(c.Request().Context(), settings); err != nil {
		return err
	}

	return c.JSON(200, map[string]string{"status": "ok"})
}
