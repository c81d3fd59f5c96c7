package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"noria.fr/campusnet/internal/entity"
	commentRepo "noria.fr/campusnet/internal/modules/comment/repository"
	postRepo "noria.fr/campusnet/internal/modules/post/repository"
	userRepo "noria.fr/campusnet/internal/modules/user/repository"
	voteDto "noria.fr/campusnet/internal/modules/vote/dto"
	voteRepo "noria.fr/campusnet/internal/modules/vote/repository"
	"noria.fr/campusnet/pkg/apperror"
)

type VoteService interface {
	CastVote(ctx context.Context, externalID string, req voteDto.VoteRequest) (*voteDto.VoteCounts, error)
	GetCounts(ctx context.Context, targetType string, targetID uuid.UUID, userID *uuid.UUID) (*voteDto.VoteCounts, error)
}

type voteService struct {
	voteRepo    voteRepo.VoteRepository
	userRepo    userRepo.UserRepository
	postRepo    postRepo.PostRepository
	commentRepo commentRepo.CommentRepository
}

func NewVoteService(voteRepo voteRepo.VoteRepository, userRepo userRepo.UserRepository, postRepo postRepo.PostRepository, commentRepo commentRepo.CommentRepository) VoteService {
	return &voteService{
		voteRepo:    voteRepo,
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
	}
}

func (s *voteService) CastVote(ctx context.Context, externalID string, req voteDto.VoteRequest) (*voteDto.VoteCounts, error) {
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

	if err := s.checkTarget(ctx, req.TargetType, req.TargetID); err != nil {
		return nil, err
	}

	_, err = s.voteRepo.Toggle(ctx, &entity.Vote{
		UserID:     user.ID,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Kind:       req.VoteType,
	})
	if err != nil {
		return nil, err
	}

	return s.GetCounts(ctx, req.TargetType, req.TargetID, &user.ID)
}

func (s *voteService) GetCounts(ctx context.Context, targetType string, targetID uuid.UUID, userID *uuid.UUID) (*voteDto.VoteCounts, error) {
	upvotes, err := s.voteRepo.CountByKind(ctx, targetType, targetID, entity.VoteLike)
	if err != nil {
		return nil, err
	}
	downvotes, err := s.voteRepo.CountByKind(ctx, targetType, targetID, entity.VoteDislike)
	if err != nil {
		return nil, err
	}

	counts := &voteDto.VoteCounts{Upvotes: upvotes, Downvotes: downvotes}
	if userID != nil {
		vote, err := s.voteRepo.FindUserVote(ctx, *userID, targetType, targetID)
		if err != nil {
			return nil, err
		}
		if vote != nil && vote.Kind != "" {
			counts.UserVote = &vote.Kind
		}
	}
	return counts, nil
}

func (s *voteService) checkTarget(ctx context.Context, targetType string, targetID uuid.UUID) error {
	var err error
	switch targetType {
	case entity.VoteTargetPost:
		_, err = s.postRepo.FindByID(ctx, targetID)
	case entity.VoteTargetComment:
		_, err = s.commentRepo.FindByID(ctx, targetID)
	default:
		return fmt.Errorf("unknown vote target: %w", apperror.ErrBadRequest)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%s not found: %w", targetType, apperror.ErrNotFound)
		}
		return err
	}
	return nil
}
