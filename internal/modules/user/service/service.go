package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"noria.fr/campusnet/internal/entity"
	"noria.fr/campusnet/internal/modules/user/dto"
	"noria.fr/campusnet/internal/modules/user/repository"
	"noria.fr/campusnet/pkg/apperror"
)

type UserService interface {
	// SyncUser inserts the local user row for an externally managed account.
	// Re-sync is a no-op when the row already exists.
	SyncUser(ctx context.Context, externalID string, req dto.SyncUserRequest) (*entity.User, error)
	GetCurrentUser(ctx context.Context, externalID string) (*entity.User, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) SyncUser(ctx context.Context, externalID string, req dto.SyncUserRequest) (*entity.User, error) {
	if externalID == "" {
		return nil, fmt.Errorf("missing identity: %w", apperror.ErrUnauthorized)
	}

	existing, err := s.repo.FindByExternalID(ctx, externalID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Username is unique; duplicate display names fail the sync rather
	// than silently renaming the account.
	if _, err := s.repo.FindByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username already taken: %w", apperror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := &entity.User{
		ExternalID: externalID,
		Username:   req.Username,
		Email:      req.Email,
	}
	if req.AvatarURL != "" {
		user.AvatarURL = &req.AvatarURL
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *userService) GetCurrentUser(ctx context.Context, externalID string) (*entity.User, error) {
	user, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrUnauthorized)
		}
		return nil, err
	}
	return user, nil
}
