package domain

import (
	"context"

	"github.com/google/uuid"
)

// VoteKind is the reaction a voter requests.
type VoteKind string

const (
	VoteLike    VoteKind = "like"
	VoteDislike VoteKind = "dislike"
)

func (k VoteKind) Valid() bool {
	return k == VoteLike || k == VoteDislike
}

// UserVote is the voter's state after a toggle: the kind they now hold,
// or VoteNone when the toggle removed their vote.
type UserVote string

const VoteNone UserVote = ""

// VoteResult carries the counters and the voter's state as computed by
// the toggle transaction. Counters reflect exactly the values written.
// Previous is the vote held before the toggle, for classifying the
// transition; it is not part of the API response.
type VoteResult struct {
	Likes    int      `json:"likes"`
	Dislikes int      `json:"dislikes"`
	UserVote UserVote `json:"user_vote"`
	Previous UserVote `json:"-"`
}

// VoteRepository performs the like/dislike toggle for a single voter.
//
// At most one vote row exists per (target, employee) pair. A repeated
// vote of the same kind removes the row; a vote of the other kind
// replaces it. The vote-row mutation and the counter mutation commit in
// one transaction, so the returned counters always equal the count of
// vote rows of each kind.
type VoteRepository interface {
	ToggleCommentVote(ctx context.Context, commentID uuid.UUID, kind VoteKind, employeeID uuid.UUID) (*VoteResult, error)
	TogglePostVote(ctx context.Context, postID uuid.UUID, kind VoteKind, employeeID uuid.UUID) (*VoteResult, error)
}
