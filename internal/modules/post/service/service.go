package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"noria.fr/campusnet/internal/entity"
	commentRepo "noria.fr/campusnet/internal/modules/comment/repository"
	communityRepo "noria.fr/campusnet/internal/modules/community/repository"
	postDto "noria.fr/campusnet/internal/modules/post/dto"
	postRepo "noria.fr/campusnet/internal/modules/post/repository"
	search "noria.fr/campusnet/internal/modules/search/service"
	userRepo "noria.fr/campusnet/internal/modules/user/repository"
	voteRepo "noria.fr/campusnet/internal/modules/vote/repository"
	"noria.fr/campusnet/pkg/apperror"
	sharedDto "noria.fr/campusnet/pkg/dto"
	"noria.fr/campusnet/pkg/ratelimiter"
	"noria.fr/campusnet/pkg/storage"
)

type PostService interface {
	CreatePost(ctx context.Context, externalID string, req postDto.CreatePostRequest) (*postDto.FeedItem, error)
	GetFeed(ctx context.Context) ([]postDto.FeedItem, error)
	GetPost(ctx context.Context, postID uuid.UUID, externalID string) (*postDto.PostDetail, error)
	GetCommunityPosts(ctx context.Context, communityID uuid.UUID) ([]postDto.FeedItem, error)
}

type postService struct {
	postRepo      postRepo.PostRepository
	userRepo      userRepo.UserRepository
	communityRepo communityRepo.CommunityRepository
	commentRepo   commentRepo.CommentRepository
	voteRepo      voteRepo.VoteRepository
	fileStorage   storage.ImageStorage
	redisClient   *redis.Client
	search        search.SearchService
	sanitizer     *bluemonday.Policy
}

func NewPostService(postRepo postRepo.PostRepository, userRepo userRepo.UserRepository, communityRepo communityRepo.CommunityRepository, commentRepo commentRepo.CommentRepository, voteRepo voteRepo.VoteRepository, fileStorage storage.ImageStorage, redisClient *redis.Client, search search.SearchService) PostService {
	return &postService{
		postRepo:      postRepo,
		userRepo:      userRepo,
		communityRepo: communityRepo,
		commentRepo:   commentRepo,
		voteRepo:      voteRepo,
		fileStorage:   fileStorage,
		redisClient:   redisClient,
		search:        search,
		sanitizer:     bluemonday.UGCPolicy(),
	}
}

func (s *postService) CreatePost(ctx context.Context, externalID string, req postDto.CreatePostRequest) (*postDto.FeedItem, error) {
	user, err := s.resolveUser(ctx, externalID)
	if err != nil {
		return nil, err
	}

	// Global cooldown
	globalLimit := ratelimiter.GetDurationFromEnv("RATE_LIMIT_GLOBAL", 5*time.Second)
	allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, user.ID, "global", globalLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !allowed {
		ttl, _ := ratelimiter.GetRateLimitTTL(ctx, s.redisClient, user.ID, "global")
		return nil, &ratelimiter.RateLimitError{
			Message:    fmt.Sprintf("you are doing that too fast. Please wait %.0f seconds", ttl.Seconds()),
			RetryAfter: ttl,
		}
	}

	// Post-specific cooldown
	postLimit := ratelimiter.GetDurationFromEnv("RATE_LIMIT_POST", 15*time.Second)
	allowed, err = ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, user.ID, "post", postLimit)
	if err != nil {
		_ = ratelimiter.ClearRateLimit(ctx, s.redisClient, user.ID, "global")
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !allowed {
		_ = ratelimiter.ClearRateLimit(ctx, s.redisClient, user.ID, "global")
		ttl, _ := ratelimiter.GetRateLimitTTL(ctx, s.redisClient, user.ID, "post")
		return nil, &ratelimiter.RateLimitError{
			Message:    fmt.Sprintf("you can only create one post every %.0f seconds. Please wait %.0f seconds", postLimit.Seconds(), ttl.Seconds()),
			RetryAfter: ttl,
		}
	}

	creationFailed := true
	defer func() {
		if creationFailed {
			_ = ratelimiter.ClearRateLimit(ctx, s.redisClient, user.ID, "global")
			_ = ratelimiter.ClearRateLimit(ctx, s.redisClient, user.ID, "post")
		}
	}()

	// Titles are kept unique by an ad hoc lookup rather than an index, so
	// two racing submits can still both land. Accepted trade-off.
	if _, err := s.postRepo.FindByTitle(ctx, req.Title); err == nil {
		return nil, fmt.Errorf("a post with this title already exists: %w", apperror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	post := &entity.Post{
		Title:    req.Title,
		Content:  s.sanitizer.Sanitize(req.Content),
		AuthorID: user.ID,
	}

	if req.CommunityID != "" {
		communityID, err := uuid.Parse(req.CommunityID)
		if err != nil {
			return nil, fmt.Errorf("invalid community id: %w", apperror.ErrBadRequest)
		}
		if _, err := s.communityRepo.FindByID(ctx, communityID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("community not found: %w", apperror.ErrNotFound)
			}
			return nil, err
		}
		post.CommunityID = &communityID
	}
	if req.ImageURL != "" {
		post.ImageURL = &req.ImageURL
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	creationFailed = false

	// Reload with relations for shaping and indexing.
	created, err := s.postRepo.FindByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	if err := s.search.IndexPost(created); err != nil {
		zap.L().Warn("post created but not indexed", zap.String("post_id", created.ID.String()), zap.Error(err))
	}

	item := s.shape(created)
	return &item, nil
}

func (s *postService) GetFeed(ctx context.Context) ([]postDto.FeedItem, error) {
	posts, err := s.postRepo.FindFeed(ctx, 50)
	if err != nil {
		return nil, err
	}
	return s.shapeAll(posts), nil
}

func (s *postService) GetPost(ctx context.Context, postID uuid.UUID, externalID string) (*postDto.PostDetail, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("post not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	commentCount, err := s.commentRepo.CountByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	upvotes, err := s.voteRepo.CountByKind(ctx, entity.VoteTargetPost, postID, entity.VoteLike)
	if err != nil {
		return nil, err
	}
	downvotes, err := s.voteRepo.CountByKind(ctx, entity.VoteTargetPost, postID, entity.VoteDislike)
	if err != nil {
		return nil, err
	}

	detail := &postDto.PostDetail{
		FeedItem:     s.shape(post),
		CommentCount: commentCount,
		Upvotes:      upvotes,
		Downvotes:    downvotes,
	}

	// Anonymous callers get the same payload without a personal vote.
	if externalID != "" {
		if user, err := s.userRepo.FindByExternalID(ctx, externalID); err == nil {
			vote, err := s.voteRepo.FindUserVote(ctx, user.ID, entity.VoteTargetPost, postID)
			if err != nil {
				return nil, err
			}
			if vote != nil && vote.Kind != "" {
				detail.UserVote = &vote.Kind
			}
		}
	}

	return detail, nil
}

func (s *postService) GetCommunityPosts(ctx context.Context, communityID uuid.UUID) ([]postDto.FeedItem, error) {
	if _, err := s.communityRepo.FindByID(ctx, communityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("community not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	posts, err := s.postRepo.FindByCommunity(ctx, communityID, 50)
	if err != nil {
		return nil, err
	}
	return s.shapeAll(posts), nil
}

func (s *postService) resolveUser(ctx context.Context, externalID string) (*entity.User, error) {
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

func (s *postService) shape(post *entity.Post) postDto.FeedItem {
	item := postDto.FeedItem{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
		Author: sharedDto.AuthorResponse{
			Username:  post.Author.Username,
			AvatarURL: post.Author.AvatarURL,
		},
	}
	if post.ImageURL != nil {
		resolved := *post.ImageURL
		if s.fileStorage != nil {
			resolved = s.fileStorage.ResolveURL(resolved)
		}
		item.ImageURL = &resolved
	}
	if post.Community != nil {
		item.Community = &sharedDto.CommunityRef{
			Name:     post.Community.Name,
			ImageURL: post.Community.ImageURL,
		}
	}
	return item
}

func (s *postService) shapeAll(posts []entity.Post) []postDto.FeedItem {
	items := make([]postDto.FeedItem, 0, len(posts))
	for i := range posts {
		items = append(items, s.shape(&posts[i]))
	}
	return items
}
