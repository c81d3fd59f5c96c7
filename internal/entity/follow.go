package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FollowTargetCommunity = "community"
	FollowTargetUser      = "user"
)

// Follow is a directed membership/subscription edge from a user to a
// community or to another user. The composite unique index keeps duplicate
// joins out even when two identical requests race.
type Follow struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FollowerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follows_unique,priority:1;index" json:"follower_id"`
	Follower   User      `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	TargetType string    `gorm:"size:20;not null;uniqueIndex:idx_follows_unique,priority:2;index:idx_follows_target,priority:1" json:"target_type"` // 'community', 'user'
	TargetID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follows_unique,priority:3;index:idx_follows_target,priority:2" json:"target_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID, err = uuid.NewV7()
	}
	return
}
