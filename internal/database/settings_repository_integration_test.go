package database

import (
	"context"
	"testing"

	"github.com/staffboard/staffboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsDefaults(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewSettingsRepo(pool)

	employee := CreateTestEmployee(t, pool, "E1001")

	// No row yet: everything defaults to enabled
	settings, err := repo.GetByEmployeeID(context.Background(), employee.ID)
	require.NoError(t, err)
	assert.Equal(t, employee.ID, settings.EmployeeID)
	assert.True(t, settings.EmailEnabled)
	assert.True(t, settings.PushEnabled)
	assert.True(t, settings.KeywordAlerts)
	assert.True(t, settings.AnnouncementAlerts)
	assert.True(t, settings.CommentAlerts)
}

func TestSettingsUpsert(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewSettingsRepo(pool)
	ctx := context.Background()

	employee := CreateTestEmployee(t, pool, "E1001")

	err := repo.Upsert(ctx, domain.NotificationSettings{
		EmployeeID:         employee.ID,
		EmailEnabled:       false,
		PushEnabled:        true,
		KeywordAlerts:      false,
		AnnouncementAlerts: true,
		CommentAlerts:      true,
	})
	require.NoError(t, err)

	settings, err := repo.GetByEmployeeID(ctx, employee.ID)
	require.NoError(t, err)
	assert.False(t, settings.EmailEnabled)
	assert.False(t, settings.KeywordAlerts)
	assert.True(t, settings.AnnouncementAlerts)

	// Upsert over an existing row updates in place
	err = repo.Upsert(ctx, domain.NotificationSettings{
		EmployeeID:   employee.ID,
		EmailEnabled: true,
	})
	require.NoError(t, err)

	settings, err = repo.GetByEmployeeID(ctx, employee.ID)
	require.NoError(t, err)
	assert.True(t, settings.EmailEnabled)
	assert.False(t, settings.AnnouncementAlerts)
}
