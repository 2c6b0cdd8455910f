package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/staffboard/staffboard/internal/domain"
)

const announcementColumns = `id, author_id, title, body, priority, target_departments, target_positions, created_at`

// AnnouncementRepo implements domain.AnnouncementRepository backed by PostgreSQL.
type AnnouncementRepo struct {
	pool *pgxpool.Pool
}

func NewAnnouncementRepo(pool *pgxpool.Pool) *AnnouncementRepo {
	return &AnnouncementRepo{pool: pool}
}

func scanAnnouncement(row pgx.Row) (*domain.Announcement, error) {
	var a domain.Announcement
	err := row.Scan(&a.ID, &a.AuthorID, &a.Title, &a.Body, &a.Priority, &a.TargetDepartments, &a.TargetPositions, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAnnouncementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AnnouncementRepo) Create(ctx context.Context, authorID uuid.UUID, title, body string, priority domain.Priority, targetDepartments, targetPositions []uuid.UUID) (*domain.Announcement, error) {
	if targetDepartments == nil {
		targetDepartments = []uuid.UUID{}
	}
	if targetPositions == nil {
		targetPositions = []uuid.UUID{}
	}
	return scanAnnouncement(r.pool.QueryRow(ctx, `
		INSERT INTO announcements (author_id, title, body, priority, target_departments, target_positions)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+announcementColumns,
		authorID, title, body, string(priority), targetDepartments, targetPositions,
	))
}

func (r *AnnouncementRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Announcement, error) {
	return scanAnnouncement(r.pool.QueryRow(ctx,
		`SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id))
}

func (r *AnnouncementRepo) List(ctx context.Context, limit, offset int) ([]domain.Announcement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+announcementColumns+` FROM announcements ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	defer rows.Close()

	var announcements []domain.Announcement
	for rows.Next() {
		var a domain.Announcement
		if err := rows.Scan(&a.ID, &a.AuthorID, &a.Title, &a.Body, &a.Priority, &a.TargetDepartments, &a.TargetPositions, &a.CreatedAt); err != nil {
			return nil, err
		}
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}
