package domain

import "context"

// EventKind distinguishes notification change-feed events.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventRead    EventKind = "read"
)

// NotificationEvent is pushed to live clients of a recipient. Created
// events carry the full new notification; read events carry the updated
// one so other sessions of the same user can reconcile.
type NotificationEvent struct {
	Kind         EventKind    `json:"kind"`
	Notification Notification `json:"notification"`
}

// EventPublisher publishes notification events to the change feed.
type EventPublisher interface {
	Publish(ctx context.Context, event NotificationEvent) error
}

// Debouncer suppresses rapid duplicate vote submissions.
type Debouncer interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// EmailSender delivers a notification over the email channel.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}
