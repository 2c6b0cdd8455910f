package votes

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/staffboard/staffboard/internal/domain"
	apperrors "github.com/staffboard/staffboard/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockVoteRepo struct {
	toggleCommentVoteFn func(ctx context.Context, commentID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error)
	togglePostVoteFn    func(ctx context.Context, postID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error)
}

func (m *mockVoteRepo) ToggleCommentVote(ctx context.Context, commentID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error) {
	if m.toggleCommentVoteFn != nil {
		return m.toggleCommentVoteFn(ctx, commentID, kind, employeeID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockVoteRepo) TogglePostVote(ctx context.Context, postID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error) {
	if m.togglePostVoteFn != nil {
		return m.togglePostVoteFn(ctx, postID, kind, employeeID)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockDebouncer struct {
	allowFn func(ctx context.Context, key string) (bool, error)
}

func (m *mockDebouncer) Allow(ctx context.Context, key string) (bool, error) {
	if m.allowFn != nil {
		return m.allowFn(ctx, key)
	}
	return true, nil
}

func newTestEngine(repo *mockVoteRepo, debouncer *mockDebouncer) *Engine {
	if repo == nil {
		repo = &mockVoteRepo{}
	}
	if debouncer == nil {
		debouncer = &mockDebouncer{}
	}
	return NewEngine(repo, debouncer, clockwork.NewFakeClock())
}

func TestToggle_CommentVote(t *testing.T) {
	commentID := uuid.New()
	employeeID := uuid.New()

	repo := &mockVoteRepo{
		toggleCommentVoteFn: func(_ context.Context, id uuid.UUID, kind domain.VoteKind, empID uuid.UUID) (*domain.VoteResult, error) {
			assert.Equal(t, commentID, id)
			assert.Equal(t, domain.VoteLike, kind)
			assert.Equal(t, employeeID, empID)
			return &domain.VoteResult{Likes: 3, Dislikes: 1, UserVote: domain.UserVote(domain.VoteLike)}, nil
		},
	}

	engine := newTestEngine(repo, nil)
	result, err := engine.Toggle(context.Background(), TargetComment, commentID, domain.VoteLike, employeeID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Likes)
	assert.Equal(t, 1, result.Dislikes)
	assert.Equal(t, domain.UserVote(domain.VoteLike), result.UserVote)
}

func TestToggle_PostVote(t *testing.T) {
	postID := uuid.New()
	employeeID := uuid.New()

	repo := &mockVoteRepo{
		togglePostVoteFn: func(_ context.Context, id uuid.UUID, kind domain.VoteKind, _ uuid.UUID) (*domain.VoteResult, error) {
			assert.Equal(t, postID, id)
			assert.Equal(t, domain.VoteDislike, kind)
			return &domain.VoteResult{Likes: 0, Dislikes: 5, UserVote: domain.UserVote(domain.VoteDislike)}, nil
		},
	}

	engine := newTestEngine(repo, nil)
	result, err := engine.Toggle(context.Background(), TargetPost, postID, domain.VoteDislike, employeeID)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Dislikes)
}

func TestToggle_InvalidKind(t *testing.T) {
	engine := newTestEngine(nil, nil)

	_, err := engine.Toggle(context.Background(), TargetComment, uuid.New(), domain.VoteKind("love"), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.TypeValidation, apperrors.AsStructuredError(err).Type)
}

func TestToggle_InvalidTarget(t *testing.T) {
	engine := newTestEngine(nil, nil)

	_, err := engine.Toggle(context.Background(), Target("thread"), uuid.New(), domain.VoteLike, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.TypeValidation, apperrors.AsStructuredError(err).Type)
}

func TestToggle_Debounced(t *testing.T) {
	repo := &mockVoteRepo{
		toggleCommentVoteFn: func(context.Context, uuid.UUID, domain.VoteKind, uuid.UUID) (*domain.VoteResult, error) {
			t.Fatal("repository must not be called when debounced")
			return nil, nil
		},
	}
	debouncer := &mockDebouncer{
		allowFn: func(context.Context, string) (bool, error) { return false, nil },
	}

	engine := newTestEngine(repo, debouncer)
	_, err := engine.Toggle(context.Background(), TargetComment, uuid.New(), domain.VoteLike, uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperrors.TypeRateLimited, apperrors.AsStructuredError(err).Type)
}

func TestToggle_DebouncerFailureDoesNotBlockVoting(t *testing.T) {
	repo := &mockVoteRepo{
		toggleCommentVoteFn: func(context.Context, uuid.UUID, domain.VoteKind, uuid.UUID) (*domain.VoteResult, error) {
			return &domain.VoteResult{Likes: 1, UserVote: domain.UserVote(domain.VoteLike)}, nil
		},
	}
	debouncer := &mockDebouncer{
		allowFn: func(context.Context, string) (bool, error) {
			return false, errors.New("redis unavailable")
		},
	}

	engine := newTestEngine(repo, debouncer)
	result, err := engine.Toggle(context.Background(), TargetComment, uuid.New(), domain.VoteLike, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Likes)
}

func TestToggle_DebounceKeyIsPerTargetAndEmployee(t *testing.T) {
	commentID := uuid.New()
	employeeID := uuid.New()

	var seenKey string
	debouncer := &mockDebouncer{
		allowFn: func(_ context.Context, key string) (bool, error) {
			seenKey = key
			return true, nil
		},
	}
	repo := &mockVoteRepo{
		toggleCommentVoteFn: func(context.Context, uuid.UUID, domain.VoteKind, uuid.UUID) (*domain.VoteResult, error) {
			return &domain.VoteResult{UserVote: domain.UserVote(domain.VoteLike)}, nil
		},
	}

	engine := newTestEngine(repo, debouncer)
	_, err := engine.Toggle(context.Background(), TargetComment, commentID, domain.VoteLike, employeeID)
	require.NoError(t, err)
	assert.Equal(t, "vote:comment:"+commentID.String()+":"+employeeID.String(), seenKey)
}

func TestToggle_RepositoryError(t *testing.T) {
	repo := &mockVoteRepo{
		toggleCommentVoteFn: func(context.Context, uuid.UUID, domain.VoteKind, uuid.UUID) (*domain.VoteResult, error) {
			return nil, domain.ErrCommentNotFound
		},
	}

	engine := newTestEngine(repo, nil)
	_, err := engine.Toggle(context.Background(), TargetComment, uuid.New(), domain.VoteLike, uuid.New())
	assert.ErrorIs(t, err, domain.ErrCommentNotFound)
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name     string
		result   domain.VoteResult
		expected string
	}{
		{"first like", domain.VoteResult{UserVote: domain.UserVote(domain.VoteLike), Previous: domain.VoteNone}, "added"},
		{"like removed", domain.VoteResult{UserVote: domain.VoteNone, Previous: domain.UserVote(domain.VoteLike)}, "removed"},
		{"dislike to like", domain.VoteResult{UserVote: domain.UserVote(domain.VoteLike), Previous: domain.UserVote(domain.VoteDislike)}, "switched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, transition(&tt.result))
		})
	}
}
