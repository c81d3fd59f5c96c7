package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Body        string    `gorm:"type:text;not null" json:"body"`
	ImageURL    *string   `gorm:"type:text" json:"image_url,omitempty"`
	CommunityID uuid.UUID `gorm:"type:uuid;not null;index" json:"community_id"`
	Community   Community `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID      uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	User        User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID, err = uuid.NewV7()
	}
	return
}

// TypingIndicator is an ephemeral per-(community, user) marker refreshed on
// every typing signal. Rows older than the expiry window are removed lazily
// by the next reader; there is no background sweep.
type TypingIndicator struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CommunityID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_typing_unique,priority:1;index" json:"community_id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_typing_unique,priority:2" json:"user_id"`
	Username     string    `gorm:"size:50;not null" json:"username"`
	LastTypingAt time.Time `gorm:"not null" json:"last_typing_at"`
}

func (t *TypingIndicator) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID, err = uuid.NewV7()
	}
	return
}
