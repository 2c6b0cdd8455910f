package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/staffboard/staffboard/internal/domain"
	apperrors "github.com/staffboard/staffboard/internal/errors"
	"github.com/staffboard/staffboard/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Pipeline coordinates notification fan-out and read-state tracking.
//
// Fan-out is decoupled from the triggering write: the caller's post or
// announcement is already committed when the pipeline runs, so a delivery
// failure never rolls back content.
type Pipeline struct {
	notifications domain.NotificationRepository
	settings      domain.SettingsRepository
	employees     domain.EmployeeRepository
	publisher     domain.EventPublisher
	email         domain.EmailSender // nil disables the email channel
	clock         clockwork.Clock
	unreadGroup   singleflight.Group
}

func NewPipeline(
	notifications domain.NotificationRepository,
	settings domain.SettingsRepository,
	employees domain.EmployeeRepository,
	publisher domain.EventPublisher,
	email domain.EmailSender,
	clock clockwork.Clock,
) *Pipeline {
	return &Pipeline{
		notifications: notifications,
		settings:      settings,
		employees:     employees,
		publisher:     publisher,
		email:         email,
		clock:         clock,
	}
}

// announcementPayload is embedded in announcement notifications so clients
// can render them without a second fetch.
type announcementPayload struct {
	AnnouncementID uuid.UUID       `json:"announcement_id"`
	AuthorID       uuid.UUID       `json:"author_id"`
	Priority       domain.Priority `json:"priority"`
}

// FanOutAnnouncement creates one notification per targeted employee and
// pushes created events to their change feeds. Partial writes are reported
// through the result, not an error; rows that were written stay written.
func (p *Pipeline) FanOutAnnouncement(ctx context.Context, announcement *domain.Announcement) (domain.FanOutResult, error) {
	recipients, err := p.employees.ListRecipients(ctx, announcement.TargetDepartments, announcement.TargetPositions)
	if err != nil {
		return domain.FanOutResult{}, fmt.Errorf("failed to resolve announcement recipients: %w", err)
	}

	payload, err := json.Marshal(announcementPayload{
		AnnouncementID: announcement.ID,
		AuthorID:       announcement.AuthorID,
		Priority:       announcement.Priority,
	})
	if err != nil {
		return domain.FanOutResult{}, fmt.Errorf("failed to marshal announcement payload: %w", err)
	}

	now := p.clock.Now().UTC()
	relatedID := announcement.ID
	rows := make([]domain.Notification, len(recipients))
	for i, recipientID := range recipients {
		rows[i] = domain.Notification{
			ID:          uuid.New(),
			RecipientID: recipientID,
			Type:        domain.NotificationAnnouncement,
			Title:       announcement.Title,
			Body:        announcement.Body,
			Payload:     payload,
			Priority:    announcement.Priority,
			RelatedID:   &relatedID,
			CreatedAt:   now,
		}
	}

	result, err := p.deliver(ctx, rows)
	if err != nil {
		return result, err
	}

	if p.email != nil {
		go p.dispatchEmails(context.WithoutCancel(ctx), rows, emailGate{announcements: true})
	}

	return result, nil
}

// NotifyComment tells a post's author that someone commented. Commenting on
// your own post is not news.
func (p *Pipeline) NotifyComment(ctx context.Context, post *domain.Post, comment *domain.Comment, authorName string) (domain.FanOutResult, error) {
	if comment.AuthorID == post.AuthorID {
		return domain.FanOutResult{}, nil
	}

	payload, err := json.Marshal(map[string]any{
		"post_id":    post.ID,
		"comment_id": comment.ID,
		"author_id":  comment.AuthorID,
	})
	if err != nil {
		return domain.FanOutResult{}, fmt.Errorf("failed to marshal comment payload: %w", err)
	}

	relatedID := comment.ID
	row := domain.Notification{
		ID:          uuid.New(),
		RecipientID: post.AuthorID,
		Type:        domain.NotificationComment,
		Title:       authorName + " commented on " + post.Title,
		Body:        comment.Body,
		Payload:     payload,
		Priority:    domain.PriorityNormal,
		RelatedID:   &relatedID,
		CreatedAt:   p.clock.Now().UTC(),
	}

	result, err := p.deliver(ctx, []domain.Notification{row})
	if err != nil {
		return result, err
	}

	if p.email != nil {
		go p.dispatchEmails(context.WithoutCancel(ctx), []domain.Notification{row}, emailGate{comments: true})
	}

	return result, nil
}

// deliver persists the rows and publishes a created event per row actually
// written. Publish failures are logged, not returned: the row is durable and
// clients catch up on their next list call.
func (p *Pipeline) deliver(ctx context.Context, rows []domain.Notification) (domain.FanOutResult, error) {
	result := domain.FanOutResult{Requested: len(rows)}
	if len(rows) == 0 {
		return result, nil
	}

	created, err := p.notifications.CreateBatch(ctx, rows)
	result.Created = created
	if err != nil {
		return result, fmt.Errorf("failed to create notifications: %w", err)
	}

	metrics.NotificationsFannedOut.WithLabelValues(string(rows[0].Type)).Add(float64(created))
	if !result.Complete() {
		metrics.NotificationFanOutIncomplete.Inc()
		slog.Warn("Notification fan-out incomplete",
			"requested", result.Requested,
			"created", result.Created,
		)
	}

	for _, row := range rows[:created] {
		event := domain.NotificationEvent{Kind: domain.EventCreated, Notification: row}
		if err := p.publisher.Publish(ctx, event); err != nil {
			slog.Error("Failed to publish created event",
				"notification_id", row.ID.String(),
				"recipient_id", row.RecipientID.String(),
				"error", err,
			)
		}
	}

	return result, nil
}

// emailGate mirrors the per-type toggles in NotificationSettings.
type emailGate struct {
	announcements bool
	comments      bool
}

func (g emailGate) allows(s *domain.NotificationSettings) bool {
	if !s.EmailEnabled {
		return false
	}
	switch {
	case g.announcements:
		return s.AnnouncementAlerts
	case g.comments:
		return s.CommentAlerts
	default:
		return false
	}
}

// dispatchEmails sends the email rendition of each notification to
// recipients whose settings allow it. Runs detached from the request.
func (p *Pipeline) dispatchEmails(ctx context.Context, rows []domain.Notification, gate emailGate) {
	for _, row := range rows {
		settings, err := p.settings.GetByEmployeeID(ctx, row.RecipientID)
		if err != nil {
			slog.Error("Failed to load notification settings", "recipient_id", row.RecipientID.String(), "error", err)
			continue
		}
		if !gate.allows(settings) {
			continue
		}

		employee, err := p.employees.GetByID(ctx, row.RecipientID)
		if err != nil {
			slog.Error("Failed to load recipient for email", "recipient_id", row.RecipientID.String(), "error", err)
			continue
		}

		if err := p.email.Send(ctx, employee.Email, row.Title, row.Body); err != nil {
			slog.Error("Failed to send notification email", "recipient_id", row.RecipientID.String(), "error", err)
		}
	}
}

// ListForRecipient returns the newest notifications for a recipient.
// A non-positive limit falls back to the default; oversized limits clamp.
func (p *Pipeline) ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return p.notifications.ListForRecipient(ctx, recipientID, limit)
}

// UnreadCount collapses concurrent lookups for the same recipient into a
// single query.
func (p *Pipeline) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	v, err, _ := p.unreadGroup.Do(recipientID.String(), func() (any, error) {
		return p.notifications.UnreadCount(ctx, recipientID)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// MarkRead marks one notification read and pushes a read event so the
// recipient's other sessions reconcile. Marking an already-read
// notification is a no-op that still returns the notification.
func (p *Pipeline) MarkRead(ctx context.Context, notificationID, recipientID uuid.UUID) (*domain.Notification, error) {
	n, err := p.notifications.MarkRead(ctx, notificationID, recipientID)
	if errors.Is(err, domain.ErrNotificationNotFound) {
		return nil, apperrors.NotFoundError("notification not found").WithField("notification_id", notificationID.String())
	}
	if err != nil {
		return nil, err
	}

	event := domain.NotificationEvent{Kind: domain.EventRead, Notification: *n}
	if err := p.publisher.Publish(ctx, event); err != nil {
		slog.Error("Failed to publish read event", "notification_id", n.ID.String(), "error", err)
	}
	return n, nil
}

// MarkAllRead marks every unread notification of the recipient read and
// returns how many changed. No per-row events are published; clients
// refresh their list after a bulk operation.
func (p *Pipeline) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int, error) {
	return p.notifications.MarkAllRead(ctx, recipientID)
}

// GetSettings returns the recipient's delivery preferences.
func (p *Pipeline) GetSettings(ctx context.Context, employeeID uuid.UUID) (*domain.NotificationSettings, error) {
	return p.settings.GetByEmployeeID(ctx, employeeID)
}

// UpdateSettings stores the recipient's delivery preferences.
func (p *Pipeline) UpdateSettings(ctx context.Context, settings domain.NotificationSettings) error {
	settings.UpdatedAt = p.clock.Now().UTC()
	return p.settings.Upsert(ctx, settings)
}

// PurgeRead deletes read notifications older than the retention cutoff.
func (p *Pipeline) PurgeRead(ctx context.Context, olderThan time.Time) (int64, error) {
	start := p.clock.Now()
	purged, err := p.notifications.PurgeRead(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to purge notifications: %w", err)
	}

	metrics.PurgeRunsTotal.Inc()
	metrics.PurgeDurationSeconds.Observe(p.clock.Since(start).Seconds())
	metrics.NotificationsPurged.Add(float64(purged))
	slog.Info("Purged read notifications", "purged", purged)
	return purged, nil
}
