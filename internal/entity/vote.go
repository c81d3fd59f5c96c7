package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	VoteTargetPost    = "post"
	VoteTargetComment = "comment"

	VoteLike    = "like"
	VoteDislike = "dislike"
)

// Vote records a user's current reaction to a post or comment. Kind is
// 'like' or 'dislike' for post votes and empty for plain comment likes,
// where presence of the row is the whole signal. At most one row exists
// per (user, target), enforced by the unique index.
type Vote struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_unique,priority:1" json:"user_id"`
	User       User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TargetType string    `gorm:"size:20;not null;uniqueIndex:idx_votes_unique,priority:2;index:idx_votes_target,priority:1" json:"target_type"` // 'post', 'comment'
	TargetID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_votes_unique,priority:3;index:idx_votes_target,priority:2" json:"target_id"`
	Kind       string    `gorm:"size:10" json:"kind,omitempty"` // 'like', 'dislike', or empty
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == uuid.Nil {
		v.ID, err = uuid.NewV7()
	}
	return
}
