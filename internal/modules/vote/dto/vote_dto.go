package dto

import "github.com/google/uuid"

type VoteRequest struct {
	TargetID   uuid.UUID `json:"target_id" binding:"required"`
	TargetType string    `json:"target_type" binding:"required,oneof=post comment"`
	VoteType   string    `json:"vote_type" binding:"required,oneof=like dislike"`
}

// VoteCounts is the per-kind tally for a target, recomputed on read.
type VoteCounts struct {
	Upvotes   int64   `json:"upvotes"`
	Downvotes int64   `json:"downvotes"`
	UserVote  *string `json:"user_vote"`
}
