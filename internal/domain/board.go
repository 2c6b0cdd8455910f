package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID        uuid.UUID `db:"id"`
	AuthorID  uuid.UUID `db:"author_id"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	Likes     int       `db:"likes"`
	Dislikes  int       `db:"dislikes"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type Comment struct {
	ID        uuid.UUID `db:"id"`
	PostID    uuid.UUID `db:"post_id"`
	AuthorID  uuid.UUID `db:"author_id"`
	Body      string    `db:"body"`
	Likes     int       `db:"likes"`
	Dislikes  int       `db:"dislikes"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type PostRepository interface {
	Create(ctx context.Context, authorID uuid.UUID, title, body string) (*Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	List(ctx context.Context, limit, offset int) ([]Post, error)
}

type CommentRepository interface {
	Create(ctx context.Context, postID, authorID uuid.UUID, body string) (*Comment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Comment, error)
	ListByPost(ctx context.Context, postID uuid.UUID) ([]Comment, error)
}
