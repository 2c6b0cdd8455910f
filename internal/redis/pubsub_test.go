package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/staffboard/staffboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEvent(kind domain.EventKind, recipientID uuid.UUID, title string) domain.NotificationEvent {
	return domain.NotificationEvent{
		Kind: kind,
		Notification: domain.Notification{
			ID:          uuid.New(),
			RecipientID: recipientID,
			Type:        domain.NotificationAnnouncement,
			Title:       title,
			Priority:    domain.PriorityNormal,
			CreatedAt:   time.Now().UTC(),
		},
	}
}

func TestPublishAndSubscribe(t *testing.T) {
	client := setupTestClient(t)
	ps := NewNotificationPubSub(client)
	ctx := context.Background()

	recipientID := uuid.New()

	// Subscribe first
	sub := ps.SubscribeRecipient(ctx, recipientID)
	defer sub.Close()

	// Give subscription time to establish
	time.Sleep(100 * time.Millisecond)

	// Publish
	err := ps.Publish(ctx, makeEvent(domain.EventCreated, recipientID, "All hands on Friday"))
	require.NoError(t, err)

	// Receive
	select {
	case event := <-sub.Ch:
		assert.Equal(t, domain.EventCreated, event.Kind)
		assert.Equal(t, recipientID, event.Notification.RecipientID)
		assert.Equal(t, "All hands on Friday", event.Notification.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pubsub message")
	}
}

func TestSubscribe_MultipleEvents(t *testing.T) {
	client := setupTestClient(t)
	ps := NewNotificationPubSub(client)
	ctx := context.Background()

	recipientID := uuid.New()
	sub := ps.SubscribeRecipient(ctx, recipientID)
	defer sub.Close()

	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		err := ps.Publish(ctx, makeEvent(domain.EventCreated, recipientID, "update"))
		require.NoError(t, err)
	}

	received := 0
	timeout := time.After(2 * time.Second)
	for received < 5 {
		select {
		case <-sub.Ch:
			received++
		case <-timeout:
			t.Fatalf("timed out, received %d/5 messages", received)
		}
	}
	assert.Equal(t, 5, received)
}

func TestSubscribe_DifferentRecipients(t *testing.T) {
	client := setupTestClient(t)
	ps := NewNotificationPubSub(client)
	ctx := context.Background()

	recipient1 := uuid.New()
	recipient2 := uuid.New()

	sub1 := ps.SubscribeRecipient(ctx, recipient1)
	defer sub1.Close()
	sub2 := ps.SubscribeRecipient(ctx, recipient2)
	defer sub2.Close()

	time.Sleep(100 * time.Millisecond)

	// Publish to recipient1 only
	err := ps.Publish(ctx, makeEvent(domain.EventRead, recipient1, "seen elsewhere"))
	require.NoError(t, err)

	// sub1 should receive
	select {
	case event := <-sub1.Ch:
		assert.Equal(t, domain.EventRead, event.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("sub1 timed out")
	}

	// sub2 should NOT receive
	select {
	case <-sub2.Ch:
		t.Fatal("sub2 should not have received a message")
	case <-time.After(200 * time.Millisecond):
		// Expected: no message
	}
}

func TestSubscribe_Close(t *testing.T) {
	client := setupTestClient(t)
	ps := NewNotificationPubSub(client)
	ctx := context.Background()

	recipientID := uuid.New()
	sub := ps.SubscribeRecipient(ctx, recipientID)

	sub.Close()

	// Channel should be closed eventually
	select {
	case _, ok := <-sub.Ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("channel was not closed after Close()")
	}
}
