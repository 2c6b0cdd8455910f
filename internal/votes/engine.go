package votes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/staffboard/staffboard/internal/domain"
	apperrors "github.com/staffboard/staffboard/internal/errors"
	"github.com/staffboard/staffboard/internal/metrics"
)

// Target identifies what is being voted on.
type Target string

const (
	TargetComment Target = "comment"
	TargetPost    Target = "post"
)

// Engine coordinates vote toggles. It holds no mutable state; concurrency
// control lives in the repository's toggle transaction.
type Engine struct {
	repo      domain.VoteRepository
	debouncer domain.Debouncer
	clock     clockwork.Clock
}

func NewEngine(repo domain.VoteRepository, debouncer domain.Debouncer, clock clockwork.Clock) *Engine {
	return &Engine{repo: repo, debouncer: debouncer, clock: clock}
}

// Toggle applies a like/dislike toggle for employeeID on the given target.
// Rapid duplicate submissions within the debounce window return a
// rate-limited error; the first submission wins.
func (e *Engine) Toggle(ctx context.Context, target Target, targetID uuid.UUID, kind domain.VoteKind, employeeID uuid.UUID) (*domain.VoteResult, error) {
	if !kind.Valid() {
		return nil, apperrors.ValidationError(fmt.Sprintf("invalid vote kind %q", kind))
	}

	allowed, err := e.debouncer.Allow(ctx, debounceKey(target, targetID, employeeID))
	if err != nil {
		// Redis being down must not block voting; proceed without debounce.
		slog.Warn("Vote debounce check failed, proceeding", "error", err)
	} else if !allowed {
		metrics.VotesDebounced.Inc()
		return nil, apperrors.RateLimitedError("vote submitted too quickly")
	}

	start := e.clock.Now()
	var result *domain.VoteResult
	switch target {
	case TargetComment:
		result, err = e.repo.ToggleCommentVote(ctx, targetID, kind, employeeID)
	case TargetPost:
		result, err = e.repo.TogglePostVote(ctx, targetID, kind, employeeID)
	default:
		return nil, apperrors.ValidationError(fmt.Sprintf("invalid vote target %q", target))
	}
	if err != nil {
		return nil, err
	}
	metrics.VoteToggleDuration.Observe(e.clock.Since(start).Seconds())
	metrics.VotesTotal.WithLabelValues(string(target), transition(result)).Inc()

	return result, nil
}

func debounceKey(target Target, targetID, employeeID uuid.UUID) string {
	return "vote:" + string(target) + ":" + targetID.String() + ":" + employeeID.String()
}

// transition classifies what the toggle did from the voter's point of view.
func transition(r *domain.VoteResult) string {
	switch {
	case r.UserVote == domain.VoteNone:
		return "removed"
	case r.Previous == domain.VoteNone:
		return "added"
	default:
		return "switched"
	}
}
