package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/staffboard/staffboard/internal/domain"
	"github.com/staffboard/staffboard/internal/metrics"
)

func recipientChannel(recipientID uuid.UUID) string {
	return "notify:user:" + recipientID.String()
}

// NotificationPubSub provides cross-instance notification delivery via
// Redis Pub/Sub. Every recipient gets their own channel, so a server
// instance only receives traffic for recipients it has live clients for.
type NotificationPubSub struct {
	rdb *goredis.Client
}

var _ domain.EventPublisher = (*NotificationPubSub)(nil)

// NewNotificationPubSub creates a new NotificationPubSub instance.
func NewNotificationPubSub(client *Client) *NotificationPubSub {
	return &NotificationPubSub{rdb: client.rdb}
}

// Publish publishes a notification event to the recipient's channel.
func (ps *NotificationPubSub) Publish(ctx context.Context, event domain.NotificationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		metrics.NotificationEventsPublished.WithLabelValues(string(event.Kind), "error").Inc()
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}
	if err := ps.rdb.Publish(ctx, recipientChannel(event.Notification.RecipientID), data).Err(); err != nil {
		metrics.NotificationEventsPublished.WithLabelValues(string(event.Kind), "error").Inc()
		return fmt.Errorf("failed to publish notification event: %w", err)
	}
	metrics.NotificationEventsPublished.WithLabelValues(string(event.Kind), "success").Inc()
	return nil
}

// Subscription represents an active Pub/Sub subscription for a recipient.
type Subscription struct {
	sub    *goredis.PubSub
	Ch     <-chan domain.NotificationEvent
	cancel context.CancelFunc
}

// Close unsubscribes and closes the subscription.
func (s *Subscription) Close() {
	s.cancel()
	_ = s.sub.Close()
}

// SubscribeRecipient subscribes to notification events for a recipient.
// Returns a Subscription with a channel that receives events.
// Call subscription.Close() when done.
func (ps *NotificationPubSub) SubscribeRecipient(ctx context.Context, recipientID uuid.UUID) *Subscription {
	channel := recipientChannel(recipientID)
	sub := ps.rdb.Subscribe(ctx, channel)

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan domain.NotificationEvent, 16)

	go func() {
		defer close(ch)
		msgCh := sub.Channel()
		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				var event domain.NotificationEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.Error("Failed to unmarshal notification event", "error", err)
					continue
				}
				select {
				case ch <- event:
				default:
					// Drop if receiver is slow
				}
			case <-subCtx.Done():
				return
			}
		}
	}()

	return &Subscription{
		sub:    sub,
		Ch:     ch,
		cancel: cancel,
	}
}
