package dto

import (
	"time"

	"github.com/google/uuid"
	sharedDto "noria.fr/campusnet/pkg/dto"
)

type CreatePostRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Content     string `json:"content" binding:"required,min=1"`
	CommunityID string `json:"community_id" binding:"omitempty,uuid"`
	ImageURL    string `json:"image_url" binding:"omitempty,url"`
}

// FeedItem is a post shaped for list views: the author and community are
// collapsed to their public display fields.
type FeedItem struct {
	ID        uuid.UUID               `json:"id"`
	Title     string                  `json:"title"`
	Content   string                  `json:"content"`
	ImageURL  *string                 `json:"image_url"`
	CreatedAt time.Time               `json:"created_at"`
	Author    sharedDto.AuthorResponse `json:"author"`
	Community *sharedDto.CommunityRef  `json:"community"`
}

// PostDetail adds the engagement numbers a single-post page needs.
type PostDetail struct {
	FeedItem
	CommentCount int64   `json:"comment_count"`
	Upvotes      int64   `json:"upvotes"`
	Downvotes    int64   `json:"downvotes"`
	UserVote     *string `json:"user_vote"`
}
