package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateCommunityRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=100"`
	Slug        string `json:"slug" binding:"required,min=3,max=100"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Visibility  string `json:"visibility" binding:"required,oneof=public private"`
}

// CommunityResponse carries the row plus the fields recomputed on every
// read: live member count and the caller's membership.
type CommunityResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	Visibility  string    `json:"visibility"`
	CreatedByID uuid.UUID `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	MemberCount int64     `json:"member_count"`
	IsJoined    bool      `json:"is_joined"`
}
