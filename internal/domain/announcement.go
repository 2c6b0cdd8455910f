package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Priority orders announcements and their notifications in the UI.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

type Announcement struct {
	ID                uuid.UUID   `db:"id"`
	AuthorID          uuid.UUID   `db:"author_id"`
	Title             string      `db:"title"`
	Body              string      `db:"body"`
	Priority          Priority    `db:"priority"`
	TargetDepartments []uuid.UUID `db:"target_departments"`
	TargetPositions   []uuid.UUID `db:"target_positions"`
	CreatedAt         time.Time   `db:"created_at"`
}

type AnnouncementRepository interface {
	Create(ctx context.Context, authorID uuid.UUID, title, body string, priority Priority, targetDepartments, targetPositions []uuid.UUID) (*Announcement, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Announcement, error)
	List(ctx context.Context, limit, offset int) ([]Announcement, error)
}
