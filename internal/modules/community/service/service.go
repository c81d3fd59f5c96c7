package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"noria.fr/campusnet/internal/entity"
	communityDto "noria.fr/campusnet/internal/modules/community/dto"
	communityRepo "noria.fr/campusnet/internal/modules/community/repository"
	followRepo "noria.fr/campusnet/internal/modules/follow/repository"
	search "noria.fr/campusnet/internal/modules/search/service"
	userRepo "noria.fr/campusnet/internal/modules/user/repository"
	"noria.fr/campusnet/pkg/apperror"
)

type CommunityService interface {
	CreateCommunity(ctx context.Context, externalID string, req communityDto.CreateCommunityRequest) (*communityDto.CommunityResponse, error)
	GetCommunity(ctx context.Context, communityID uuid.UUID, externalID string) (*communityDto.CommunityResponse, error)
	ListCommunities(ctx context.Context, externalID string) ([]communityDto.CommunityResponse, error)
	ListAllCommunities(ctx context.Context) ([]entity.Community, error)
	ListJoinedCommunities(ctx context.Context, externalID string) ([]communityDto.CommunityResponse, error)
	ListCreatedCommunities(ctx context.Context, externalID string) ([]communityDto.CommunityResponse, error)
	ListRecommendations(ctx context.Context, externalID string) ([]communityDto.CommunityResponse, error)
	JoinCommunity(ctx context.Context, externalID string, communityID uuid.UUID) error
	LeaveCommunity(ctx context.Context, externalID string, communityID uuid.UUID) error
}

type communityService struct {
	communityRepo communityRepo.CommunityRepository
	followRepo    followRepo.FollowRepository
	userRepo      userRepo.UserRepository
	search        search.SearchService
}

func NewCommunityService(communityRepo communityRepo.CommunityRepository, followRepo followRepo.FollowRepository, userRepo userRepo.UserRepository, search search.SearchService) CommunityService {
	return &communityService{
		communityRepo: communityRepo,
		followRepo:    followRepo,
		userRepo:      userRepo,
		search:        search,
	}
}

func (s *communityService) requireUser(ctx context.Context, externalID string) (*entity.User, error) {
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

// optionalUser resolves the caller when possible; reads fall back to the
// unauthenticated view on any failure.
func (s *communityService) optionalUser(ctx context.Context, externalID string) *entity.User {
	if externalID == "" {
		return nil
	}
	user, err := s.userRepo.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil
	}
	return user
}

func (s *communityService) CreateCommunity(ctx context.Context, externalID string, req communityDto.CreateCommunityRequest) (*communityDto.CommunityResponse, error) {
	user, err := s.requireUser(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if _, err := s.communityRepo.FindBySlug(ctx, req.Slug); err == nil {
		return nil, fmt.Errorf("slug already taken: %w", apperror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	community := &entity.Community{
		Name:        req.Name,
		Slug:        req.Slug,
		Visibility:  req.Visibility,
		CreatedByID: user.ID,
	}
	if req.Description != "" {
		community.Description = &req.Description
	}
	if req.ImageURL != "" {
		community.ImageURL = &req.ImageURL
	}

	if err := s.communityRepo.Create(ctx, community); err != nil {
		return nil, err
	}

	if err := s.search.IndexCommunity(community); err != nil {
		zap.L().Warn("community created but not indexed", zap.String("community_id", community.ID.String()), zap.Error(err))
	}

	return s.buildResponse(ctx, community, user), nil
}

func (s *communityService) GetCommunity(ctx context.Context, communityID uuid.UUID, externalID string) (*communityDto.CommunityResponse, error) {
	community, err := s.communityRepo.FindByID(ctx, communityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("community not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	return s.buildResponse(ctx, community, s.optionalUser(ctx, externalID)), nil
}

func (s *communityService) ListCommunities(ctx context.Context, externalID string) ([]communityDto.CommunityResponse, error) {
	communities, err := s.communityRepo.FindNewest(ctx, 50)
	if err != nil {
		return nil, err
	}

	user := s.optionalUser(ctx, externalID)
	joined, err := s.joinedSet(ctx, user)
	if err != nil {
		return nil, err
	}

	responses := make([]communityDto.CommunityResponse, 0, len(communities))
	for i := range communities {
		resp, err := s.buildResponseWithJoined(ctx, &communities[i], joined)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}
	return responses, nil
}

func (s *communityService) ListAllCommunities(ctx context.Context) ([]entity.Community, error) {
	return s.communityRepo.FindNewest(ctx, 100)
}

func (s *communityService) ListJoinedCommunities(ctx context.Context, externalID string) ([]communityDto.CommunityResponse, error) {
	user, err := s.requireUser(ctx, externalID)
	if err != nil {
		return nil, err
	}

	follows, err := s.followRepo.ListByFollower(ctx, user.ID, entity.FollowTargetCommunity)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(follows))
	for _, f := range follows {
		ids = append(ids, f.TargetID)
	}

	communities, err := s.communityRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	responses := make([]communityDto.CommunityResponse, 0, len(communities))
	for i := range communities {
		resp := s.buildResponse(ctx, &communities[i], user)
		responses = append(responses, *resp)
	}
	return responses, nil
}

func (s *communityService) ListCreatedCommunities(ctx context.Context, externalID string) ([]communityDto.CommunityResponse, error) {
	user, err := s.requireUser(ctx, externalID)
	if err != nil {
		return nil, err
	}

	communities, err := s.communityRepo.FindByCreator(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]communityDto.CommunityResponse, 0, len(communities))
	for i := range communities {
		responses = append(responses, *s.buildResponse(ctx, &communities[i], user))
	}
	return responses, nil
}

// ListRecommendations returns recent communities the caller has not joined
// yet, capped at 10. Anonymous callers just get the newest ones.
func (s *communityService) ListRecommendations(ctx context.Context, externalID string) ([]communityDto.CommunityResponse, error) {
	communities, err := s.communityRepo.FindNewest(ctx, 50)
	if err != nil {
		return nil, err
	}

	user := s.optionalUser(ctx, externalID)
	joined, err := s.joinedSet(ctx, user)
	if err != nil {
		return nil, err
	}

	responses := make([]communityDto.CommunityResponse, 0, 10)
	for i := range communities {
		if joined[communities[i].ID] {
			continue
		}
		resp, err := s.buildResponseWithJoined(ctx, &communities[i], joined)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
		if len(responses) == 10 {
			break
		}
	}
	return responses, nil
}

func (s *communityService) JoinCommunity(ctx context.Context, externalID string, communityID uuid.UUID) error {
	user, err := s.requireUser(ctx, externalID)
	if err != nil {
		return err
	}

	if _, err := s.communityRepo.FindByID(ctx, communityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("community not found: %w", apperror.ErrNotFound)
		}
		return err
	}

	// Duplicate joins are a no-op: the insert does nothing when the edge
	// already exists.
	return s.followRepo.Create(ctx, &entity.Follow{
		FollowerID: user.ID,
		TargetType: entity.FollowTargetCommunity,
		TargetID:   communityID,
	})
}

func (s *communityService) LeaveCommunity(ctx context.Context, externalID string, communityID uuid.UUID) error {
	user, err := s.requireUser(ctx, externalID)
	if err != nil {
		return err
	}

	// Leaving when not joined is a no-op.
	return s.followRepo.Delete(ctx, user.ID, entity.FollowTargetCommunity, communityID)
}

func (s *communityService) joinedSet(ctx context.Context, user *entity.User) (map[uuid.UUID]bool, error) {
	joined := make(map[uuid.UUID]bool)
	if user == nil {
		return joined, nil
	}
	follows, err := s.followRepo.ListByFollower(ctx, user.ID, entity.FollowTargetCommunity)
	if err != nil {
		return nil, err
	}
	for _, f := range follows {
		joined[f.TargetID] = true
	}
	return joined, nil
}

func (s *communityService) buildResponse(ctx context.Context, community *entity.Community, user *entity.User) *communityDto.CommunityResponse {
	// Member count is always recomputed from the live follow rows.
	memberCount, _ := s.followRepo.CountByTarget(ctx, entity.FollowTargetCommunity, community.ID)

	isJoined := false
	if user != nil {
		isJoined, _ = s.followRepo.Exists(ctx, user.ID, entity.FollowTargetCommunity, community.ID)
	}

	return &communityDto.CommunityResponse{
		ID:          community.ID,
		Name:        community.Name,
		Slug:        community.Slug,
		Description: community.Description,
		ImageURL:    community.ImageURL,
		Visibility:  community.Visibility,
		CreatedByID: community.CreatedByID,
		CreatedAt:   community.CreatedAt,
		MemberCount: memberCount,
		IsJoined:    isJoined,
	}
}

func (s *communityService) buildResponseWithJoined(ctx context.Context, community *entity.Community, joined map[uuid.UUID]bool) (*communityDto.CommunityResponse, error) {
	memberCount, err := s.followRepo.CountByTarget(ctx, entity.FollowTargetCommunity, community.ID)
	if err != nil {
		return nil, err
	}

	return &communityDto.CommunityResponse{
		ID:          community.ID,
		Name:        community.Name,
		Slug:        community.Slug,
		Description: community.Description,
		ImageURL:    community.ImageURL,
		Visibility:  community.Visibility,
		CreatedByID: community.CreatedByID,
		CreatedAt:   community.CreatedAt,
		MemberCount: memberCount,
		IsJoined:    joined[community.ID],
	}, nil
}
