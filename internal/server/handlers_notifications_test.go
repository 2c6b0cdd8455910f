package server

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/staffboard/staffboard/internal/domain"
	apperrors "github.com/staffboard/staffboard/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleListNotifications_EmptyIsJSONArray(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	c, rec := newAuthedContext(srv, http.MethodGet, "/api/notifications", nil, uuid.New(), false)
	require.NoError(t, srv.handleListNotifications(c))
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestHandleUnreadCount(t *testing.T) {
	recipientID := uuid.New()
	srv := newTestServer(t, &mockAppService{
		unreadCountFn: func(_ context.Context, got uuid.UUID) (int, error) {
			assert.Equal(t, recipientID, got)
			return 7, nil
		},
	})

	c, rec := newAuthedContext(srv, http.MethodGet, "/api/notifications/unread-count", nil, recipientID, false)
	require.NoError(t, srv.handleUnreadCount(c))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unread":7`)
}

func TestHandleMarkRead_ScopedToRecipient(t *testing.T) {
	notificationID := uuid.New()
	recipientID := uuid.New()
	srv := newTestServer(t, &mockAppService{
		markReadFn: func(_ context.Context, gotNotification, gotRecipient uuid.UUID) (*domain.Notification, error) {
			assert.Equal(t, notificationID, gotNotification)
			assert.Equal(t, recipientID, gotRecipient)
			return &domain.Notification{ID: gotNotification, RecipientID: gotRecipient, IsRead: true}, nil
		},
	})

	c, rec := newAuthedContext(srv, http.MethodPost, "/api/notifications/"+notificationID.String()+"/read", nil, recipientID, false)
	c.SetParamNames("id")
	c.SetParamValues(notificationID.String())

	require.NoError(t, srv.handleMarkRead(c))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_read":true`)
}

func TestHandleMarkRead_NotFoundPassesThrough(t *testing.T) {
	notificationID := uuid.New()
	srv := newTestServer(t, &mockAppService{
		markReadFn: func(context.Context, uuid.UUID, uuid.UUID) (*domain.Notification, error) {
			return nil, apperrors.NotFoundError("notification not found")
		},
	})

	c, _ := newAuthedContext(srv, http.MethodPost, "/api/notifications/"+notificationID.String()+"/read", nil, uuid.New(), false)
	c.SetParamNames("id")
	c.SetParamValues(notificationID.String())

	err := srv.handleMarkRead(c)
	require.Error(t, err)
	assert.Equal(t, apperrors.TypeNotFound, apperrors.AsStructuredError(err).Type)
}

func TestHandleUpdateSettings_UsesAuthenticatedEmployee(t *testing.T) {
	id := uuid.New()
	var saved domain.NotificationSettings
	srv := newTestServer(t, &mockAppService{
		updateSettingsFn: func(_ context.Context, settings domain.NotificationSettings) error {
			saved = settings
			return nil
		},
	})

	// employee_id in the body must not override the authenticated identity
	body := `{"employee_id":"` + uuid.NewString() + `","email_enabled":true,"comment_alerts":true}`
	c, rec := newAuthedContext(srv, http.MethodPut, "/api/notifications/settings", strings.NewReader(body), id, false)

	require.NoError(t, srv.handleUpdateSettings(c))
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, id, saved.EmployeeID)
	assert.True(t, saved.EmailEnabled)
	assert.True(t, saved.CommentAlerts)
	assert.False(t, saved.AnnouncementAlerts)
}
