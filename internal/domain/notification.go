package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationAnnouncement NotificationType = "announcement"
	NotificationComment      NotificationType = "comment"
	NotificationKeywordAlert NotificationType = "keyword_alert"
	NotificationSystem       NotificationType = "system"
)

// Notification is one message to one recipient. Rows are created in bulk
// by fan-out and mutated only to flip the read flag; deletion is handled
// by the retention purge, never by the pipeline itself.
type Notification struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	RecipientID uuid.UUID        `db:"recipient_id" json:"recipient_id"`
	Type        NotificationType `db:"type" json:"type"`
	Title       string           `db:"title" json:"title"`
	Body        string           `db:"body" json:"body,omitempty"`
	Payload     json.RawMessage  `db:"payload" json:"payload,omitempty"`
	Priority    Priority         `db:"priority" json:"priority"`
	IsRead      bool             `db:"is_read" json:"is_read"`
	ReadAt      *time.Time       `db:"read_at" json:"read_at,omitempty"`
	RelatedID   *uuid.UUID       `db:"related_id" json:"related_id,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// FanOutResult reports how many notifications a fan-out attempted versus
// how many rows were actually written, so callers can decide whether
// partial delivery is an error.
type FanOutResult struct {
	Requested int `json:"requested"`
	Created   int `json:"created"`
}

func (r FanOutResult) Complete() bool { return r.Created == r.Requested }

type NotificationSettings struct {
	EmployeeID         uuid.UUID `db:"employee_id" json:"employee_id"`
	EmailEnabled       bool      `db:"email_enabled" json:"email_enabled"`
	PushEnabled        bool      `db:"push_enabled" json:"push_enabled"`
	KeywordAlerts      bool      `db:"keyword_alerts" json:"keyword_alerts"`
	AnnouncementAlerts bool      `db:"announcement_alerts" json:"announcement_alerts"`
	CommentAlerts      bool      `db:"comment_alerts" json:"comment_alerts"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

type NotificationRepository interface {
	// CreateBatch inserts the given notifications and returns the number
	// of rows written.
	CreateBatch(ctx context.Context, notifications []Notification) (int, error)

	ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error)

	// MarkRead flips is_read for one notification owned by recipientID.
	// Already-read notifications keep their original read_at.
	MarkRead(ctx context.Context, notificationID, recipientID uuid.UUID) (*Notification, error)
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error)

	// PurgeRead deletes read notifications older than the cutoff.
	PurgeRead(ctx context.Context, olderThan time.Time) (int64, error)
}

type SettingsRepository interface {
	GetByEmployeeID(ctx context.Context, employeeID uuid.UUID) (*NotificationSettings, error)
	Upsert(ctx context.Context, settings NotificationSettings) error
}
