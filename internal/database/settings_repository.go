package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/staffboard/staffboard/internal/domain"
)

// SettingsRepo implements domain.SettingsRepository backed by PostgreSQL.
type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

// GetByEmployeeID returns the employee's settings, falling back to the
// default (everything enabled) when no row exists yet.
func (r *SettingsRepo) GetByEmployeeID(ctx context.Context, employeeID uuid.UUID) (*domain.NotificationSettings, error) {
	var s domain.NotificationSettings
	err := r.pool.QueryRow(ctx, `
		SELECT employee_id, email_enabled, push_enabled, keyword_alerts, announcement_alerts, comment_alerts, updated_at
		FROM notification_settings WHERE employee_id = $1`,
		employeeID,
	).Scan(&s.EmployeeID, &s.EmailEnabled, &s.PushEnabled, &s.KeywordAlerts, &s.AnnouncementAlerts, &s.CommentAlerts, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.NotificationSettings{
			EmployeeID:         employeeID,
			EmailEnabled:       true,
			PushEnabled:        true,
			KeywordAlerts:      true,
			AnnouncementAlerts: true,
			CommentAlerts:      true,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepo) Upsert(ctx context.Context, settings domain.NotificationSettings) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_settings (employee_id, email_enabled, push_enabled, keyword_alerts, announcement_alerts, comment_alerts, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (employee_id) DO UPDATE SET
			email_enabled = EXCLUDED.email_enabled,
			push_enabled = EXCLUDED.push_enabled,
			keyword_alerts = EXCLUDED.keyword_alerts,
			announcement_alerts = EXCLUDED.announcement_alerts,
			comment_alerts = EXCLUDED.comment_alerts,
			updated_at = NOW()`,
		settings.EmployeeID, settings.EmailEnabled, settings.PushEnabled,
		settings.KeywordAlerts, settings.AnnouncementAlerts, settings.CommentAlerts,
	)
	return err
}
