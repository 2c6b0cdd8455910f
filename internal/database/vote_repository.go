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

// VoteRepo implements domain.VoteRepository on PostgreSQL.
//
// Both the vote row and the denormalized counters change inside one
// transaction, with the target row locked first. Locking the target
// serializes concurrent toggles on the same comment/post, so counters
// can never drift from the vote rows.
type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

// toggleTarget parameterizes the toggle over the two vote tables. The
// identifiers come from these fixed literals only, never from input.
type toggleTarget struct {
	table     string
	voteTable string
	fkColumn  string
	notFound  error
}

var (
	commentTarget = toggleTarget{
		table:     "comments",
		voteTable: "comment_votes",
		fkColumn:  "comment_id",
		notFound:  domain.ErrCommentNotFound,
	}
	postTarget = toggleTarget{
		table:     "posts",
		voteTable: "post_votes",
		fkColumn:  "post_id",
		notFound:  domain.ErrPostNotFound,
	}
)

func (r *VoteRepo) ToggleCommentVote(ctx context.Context, commentID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error) {
	return r.toggle(ctx, commentTarget, commentID, kind, employeeID)
}

func (r *VoteRepo) TogglePostVote(ctx context.Context, postID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error) {
	return r.toggle(ctx, postTarget, postID, kind, employeeID)
}

func (r *VoteRepo) toggle(ctx context.Context, t toggleTarget, targetID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid vote kind %q", kind)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin vote transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	// Lock the target row to serialize toggles on the same comment/post.
	var likes, dislikes int
	err = tx.QueryRow(ctx,
		`SELECT likes, dislikes FROM `+t.table+` WHERE id = $1 FOR UPDATE`,
		targetID,
	).Scan(&likes, &dislikes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, t.notFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s row: %w", t.table, err)
	}

	var existing domain.VoteKind
	hasVote := true
	err = tx.QueryRow(ctx,
		`SELECT kind FROM `+t.voteTable+` WHERE `+t.fkColumn+` = $1 AND employee_id = $2`,
		targetID, employeeID,
	).Scan(&existing)
	if errors.Is(err, pgx.ErrNoRows) {
		hasVote = false
	} else if err != nil {
		return nil, fmt.Errorf("failed to read existing vote: %w", err)
	}

	previous := domain.VoteNone
	if hasVote {
		previous = domain.UserVote(existing)
	}

	userVote := domain.UserVote(kind)
	switch {
	case !hasVote:
		// First vote: add a row of the requested kind.
		_, err = tx.Exec(ctx,
			`INSERT INTO `+t.voteTable+` (`+t.fkColumn+`, employee_id, kind) VALUES ($1, $2, $3)`,
			targetID, employeeID, string(kind),
		)
		likes, dislikes = bump(likes, dislikes, kind, +1)

	case existing == kind:
		// Same reaction again: toggle off.
		_, err = tx.Exec(ctx,
			`DELETE FROM `+t.voteTable+` WHERE `+t.fkColumn+` = $1 AND employee_id = $2`,
			targetID, employeeID,
		)
		likes, dislikes = bump(likes, dislikes, kind, -1)
		userVote = domain.VoteNone

	default:
		// Opposite reaction: switch the row's kind.
		_, err = tx.Exec(ctx,
			`UPDATE `+t.voteTable+` SET kind = $3, updated_at = NOW() WHERE `+t.fkColumn+` = $1 AND employee_id = $2`,
			targetID, employeeID, string(kind),
		)
		likes, dislikes = bump(likes, dislikes, existing, -1)
		likes, dislikes = bump(likes, dislikes, kind, +1)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mutate vote row: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE `+t.table+` SET likes = $1, dislikes = $2, updated_at = NOW() WHERE id = $3`,
		likes, dislikes, targetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update counters: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit vote transaction: %w", err)
	}

	return &domain.VoteResult{Likes: likes, Dislikes: dislikes, UserVote: userVote, Previous: previous}, nil
}

func bump(likes, dislikes int, kind domain.VoteKind, delta int) (int, int) {
	if kind == domain.VoteLike {
		return likes + delta, dislikes
	}
	return likes, dislikes + delta
}
