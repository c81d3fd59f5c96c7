package dto

import (
	"time"

	"github.com/google/uuid"
	sharedDto "noria.fr/campusnet/pkg/dto"
)

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1"`
}

type CommentResponse struct {
	ID        uuid.UUID                `json:"id"`
	Content   string                   `json:"content"`
	PostID    uuid.UUID                `json:"post_id"`
	CreatedAt time.Time                `json:"created_at"`
	Author    sharedDto.AuthorResponse `json:"author"`
	LikeCount int64                    `json:"like_count"`
	UserLiked bool                     `json:"user_liked"`
}

type LikeResponse struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}
