package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendMessageRequest struct {
	Body     string `json:"body" binding:"required,min=1"`
	ImageURL string `json:"image_url" binding:"omitempty,url"`
}

type TypingRequest struct {
	IsTyping *bool `json:"is_typing" binding:"required"`
}

// MessageAuthor carries the external identity alongside the local row so
// clients can match messages against their own session.
type MessageAuthor struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Username   string    `json:"username"`
	AvatarURL  *string   `json:"avatar_url"`
}

type MessageResponse struct {
	ID          uuid.UUID     `json:"id"`
	Body        string        `json:"body"`
	ImageURL    *string       `json:"image_url"`
	CommunityID uuid.UUID     `json:"community_id"`
	CreatedAt   time.Time     `json:"created_at"`
	Author      MessageAuthor `json:"author"`
}

type TypingUserResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}
