package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/staffboard/staffboard/internal/domain"
	"github.com/stretchr/testify/require"
)

// CreateTestEmployee creates an active, approved employee for testing.
func CreateTestEmployee(t *testing.T, pool *pgxpool.Pool, employeeNo string) *domain.Employee {
	t.Helper()

	repo := NewEmployeeRepo(pool)
	ctx := context.Background()

	employee, err := repo.Create(ctx, employeeNo, "Employee "+employeeNo, employeeNo+"@corp.example", "hash", nil, nil)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, employee.ID)

	require.NoError(t, repo.Approve(ctx, employee.ID))
	employee.IsApproved = true

	return employee
}

// CreateTestPost creates a post authored by the given employee.
func CreateTestPost(t *testing.T, pool *pgxpool.Pool, authorID uuid.UUID) *domain.Post {
	t.Helper()

	repo := NewPostRepo(pool)
	post, err := repo.Create(context.Background(), authorID, "Test post", "body")
	require.NoError(t, err)

	return post
}

// CreateTestComment creates a comment on the given post.
func CreateTestComment(t *testing.T, pool *pgxpool.Pool, postID, authorID uuid.UUID) *domain.Comment {
	t.Helper()

	repo := NewCommentRepo(pool)
	comment, err := repo.Create(context.Background(), postID, authorID, "test comment")
	require.NoError(t, err)

	return comment
}
