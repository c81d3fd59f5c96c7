package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
	"noria.fr/campusnet/internal/entity"
	commentDto "noria.fr/campusnet/internal/modules/comment/dto"
	commentRepo "noria.fr/campusnet/internal/modules/comment/repository"
	postRepo "noria.fr/campusnet/internal/modules/post/repository"
	userRepo "noria.fr/campusnet/internal/modules/user/repository"
	voteRepo "noria.fr/campusnet/internal/modules/vote/repository"
	"noria.fr/campusnet/pkg/apperror"
	sharedDto "noria.fr/campusnet/pkg/dto"
)

type CommentService interface {
	CreateComment(ctx context.Context, externalID string, postID uuid.UUID, req commentDto.CreateCommentRequest) (*commentDto.CommentResponse, error)
	GetComments(ctx context.Context, postID uuid.UUID, externalID string) ([]commentDto.CommentResponse, error)
	// ToggleLike flips the caller's like on a comment. Likes are presence
	// rows, not kinded votes.
	ToggleLike(ctx context.Context, externalID string, commentID uuid.UUID) (*commentDto.LikeResponse, error)
}

type commentService struct {
	commentRepo commentRepo.CommentRepository
	postRepo    postRepo.PostRepository
	userRepo    userRepo.UserRepository
	voteRepo    voteRepo.VoteRepository
	sanitizer   *bluemonday.Policy
}

func NewCommentService(commentRepo commentRepo.CommentRepository, postRepo postRepo.PostRepository, userRepo userRepo.UserRepository, voteRepo voteRepo.VoteRepository) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		voteRepo:    voteRepo,
		sanitizer:   bluemonday.UGCPolicy(),
	}
}

func (s *commentService) CreateComment(ctx context.Context, externalID string, postID uuid.UUID, req commentDto.CreateCommentRequest) (*commentDto.CommentResponse, error) {
	user, err := s.requireUser(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("post not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	comment := &entity.Comment{
		Content:  s.sanitizer.Sanitize(req.Content),
		PostID:   postID,
		AuthorID: user.ID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	return &commentDto.CommentResponse{
		ID:        comment.ID,
		Content:   comment.Content,
		PostID:    comment.PostID,
		CreatedAt: comment.CreatedAt,
		Author: sharedDto.AuthorResponse{
			Username:  user.Username,
			AvatarURL: user.AvatarURL,
		},
	}, nil
}

func (s *commentService) GetComments(ctx context.Context, postID uuid.UUID, externalID string) ([]commentDto.CommentResponse, error) {
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("post not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	comments, err := s.commentRepo.FindByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	var caller *entity.User
	if externalID != "" {
		if user, err := s.userRepo.FindByExternalID(ctx, externalID); err == nil {
			caller = user
		}
	}

	responses := make([]commentDto.CommentResponse, 0, len(comments))
	for i := range comments {
		c := &comments[i]

		likeCount, err := s.voteRepo.CountByTarget(ctx, entity.VoteTargetComment, c.ID)
		if err != nil {
			return nil, err
		}

		userLiked := false
		if caller != nil {
			vote, err := s.voteRepo.FindUserVote(ctx, caller.ID, entity.VoteTargetComment, c.ID)
			if err != nil {
				return nil, err
			}
			userLiked = vote != nil
		}

		responses = append(responses, commentDto.CommentResponse{
			ID:        c.ID,
			Content:   c.Content,
			PostID:    c.PostID,
			CreatedAt: c.CreatedAt,
			Author: sharedDto.AuthorResponse{
				Username:  c.Author.Username,
				AvatarURL: c.Author.AvatarURL,
			},
			LikeCount: likeCount,
			UserLiked: userLiked,
		})
	}
	return responses, nil
}

func (s *commentService) ToggleLike(ctx context.Context, externalID string, commentID uuid.UUID) (*commentDto.LikeResponse, error) {
	user, err := s.requireUser(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if _, err := s.commentRepo.FindByID(ctx, commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("comment not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	liked, err := s.voteRepo.Toggle(ctx, &entity.Vote{
		UserID:     user.ID,
		TargetType: entity.VoteTargetComment,
		TargetID:   commentID,
	})
	if err != nil {
		return nil, err
	}

	likeCount, err := s.voteRepo.CountByTarget(ctx, entity.VoteTargetComment, commentID)
	if err != nil {
		return nil, err
	}

	return &commentDto.LikeResponse{Liked: liked, LikeCount: likeCount}, nil
}

func (s *commentService) requireUser(ctx context.Context, externalID string) (*entity.User, error) {
	if externalID == "" {
		return nil, fmt.Errorf("not authenticated: %w", apperror.ErrUnauthorized)
	}
	user, err := s.userRepo.FindByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrUnauthorized)
		}
		return nil, err
	}
	return user, nil
}
