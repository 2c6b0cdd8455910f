package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/staffboard/staffboard/internal/domain"
	apperrors "github.com/staffboard/staffboard/internal/errors"
)

type publishAnnouncementRequest struct {
	Title             string          `json:"title"`
	Body              string          `json:"body"`
	Priority          domain.Priority `json:"priority"`
	TargetDepartments []uuid.UUID     `json:"target_departments,omitempty"`
	TargetPositions   []uuid.UUID     `json:"target_positions,omitempty"`
}

type announcementResponse struct {
	ID                uuid.UUID       `json:"id"`
	AuthorID          uuid.UUID       `json:"author_id"`
	Title             string          `json:"title"`
	Body              string          `json:"body"`
	Priority          domain.Priority `json:"priority"`
	TargetDepartments []uuid.UUID     `json:"target_departments,omitempty"`
	TargetPositions   []uuid.UUID     `json:"target_positions,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func toAnnouncementResponse(a *domain.Announcement) announcementResponse {
	return announcementResponse{
		ID:                a.ID,
		AuthorID:          a.AuthorID,
		Title:             a.Title,
		Body:              a.Body,
		Priority:          a.Priority,
		TargetDepartments: a.TargetDepartments,
		TargetPositions:   a.TargetPositions,
		CreatedAt:         a.CreatedAt,
	}
}

func (s *Server) handlePublishAnnouncement(c echo.Context) error {
	authorID, err := employeeID(c)
	if err != nil {
		return err
	}

	var req publishAnnouncementRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Priority == "" {
		req.Priority = domain.PriorityNormal
	}

	announcement, fanOut, err := s.app.PublishAnnouncement(c.Request().Context(), authorID, req.Title, req.Body, req.Priority, req.TargetDepartments, req.TargetPositions)
	if err != nil {
		return err
	}

	return c.JSON(201, map[string]any{
		"announcement": toAnnouncementResponse(announcement),
		"fan_out":      fanOut,
	})
}

func (s *Server) handleGetAnnouncement(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	announcement, err := s.app.GetAnnouncement(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(200, toAnnouncementResponse(announcement))
}

func (s *Server) handleListAnnouncements(c echo.Context) error {
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	announcements, err := s.app.ListAnnouncements(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}

	out := make([]announcementResponse, len(announcements))
	for i := range announcements {
		out[i] = toAnnouncementResponse(&announcements[i])
	}
	return c.JSON(200, out)
}
