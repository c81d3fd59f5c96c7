package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"noria.fr/campusnet/internal/entity"
	communityRepo "noria.fr/campusnet/internal/modules/community/repository"
	followRepo "noria.fr/campusnet/internal/modules/follow/repository"
	messageDto "noria.fr/campusnet/internal/modules/message/dto"
	messageRepo "noria.fr/campusnet/internal/modules/message/repository"
	userRepo "noria.fr/campusnet/internal/modules/user/repository"
	"noria.fr/campusnet/pkg/apperror"
	"noria.fr/campusnet/pkg/ratelimiter"
)

// typingExpiry is how long a typing indicator stays visible without a
// refresh. Expired rows are deleted by the next read.
const typingExpiry = 5 * time.Second

// ChannelForCommunity names the Redis pub/sub channel that carries new
// messages for a community.
func ChannelForCommunity(communityID uuid.UUID) string {
	return fmt.Sprintf("community_messages:%s", communityID.String())
}

type MessageService interface {
	SendMessage(ctx context.Context, externalID string, communityID uuid.UUID, req messageDto.SendMessageRequest) (*messageDto.MessageResponse, error)
	// ListMessages returns the newest 100 messages in ascending order.
	ListMessages(ctx context.Context, communityID uuid.UUID) ([]messageDto.MessageResponse, error)
	SetTyping(ctx context.Context, externalID string, communityID uuid.UUID, isTyping bool) error
	GetTypingUsers(ctx context.Context, communityID uuid.UUID) ([]messageDto.TypingUserResponse, error)
}

type messageService struct {
	messageRepo   messageRepo.MessageRepository
	communityRepo communityRepo.CommunityRepository
	followRepo    followRepo.FollowRepository
	userRepo      userRepo.UserRepository
	redisClient   *redis.Client
	sanitizer     *bluemonday.Policy
}

func NewMessageService(messageRepo messageRepo.MessageRepository, communityRepo communityRepo.CommunityRepository, followRepo followRepo.FollowRepository, userRepo userRepo.UserRepository, redisClient *redis.Client) MessageService {
	return &messageService{
		messageRepo:   messageRepo,
		communityRepo: communityRepo,
		followRepo:    followRepo,
		userRepo:      userRepo,
		redisClient:   redisClient,
		sanitizer:     bluemonday.UGCPolicy(),
	}
}

func (s *messageService) SendMessage(ctx context.Context, externalID string, communityID uuid.UUID, req messageDto.SendMessageRequest) (*messageDto.MessageResponse, error) {
	user, err := s.requireUser(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if _, err := s.communityRepo.FindByID(ctx, communityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("community not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	joined, err := s.followRepo.Exists(ctx, user.ID, entity.FollowTargetCommunity, communityID)
	if err != nil {
		return nil, err
	}
	if !joined {
		return nil, fmt.Errorf("you must join the community to post messages: %w", apperror.ErrConflict)
	}

	messageLimit := ratelimiter.GetDurationFromEnv("RATE_LIMIT_MESSAGE", time.Second)
	allowed, err := ratelimiter.CheckAndSetRateLimit(ctx, s.redisClient, user.ID, "message", messageLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !allowed {
		ttl, _ := ratelimiter.GetRateLimitTTL(ctx, s.redisClient, user.ID, "message")
		return nil, &ratelimiter.RateLimitError{
			Message:    fmt.Sprintf("you are sending messages too fast. Please wait %.0f seconds", ttl.Seconds()),
			RetryAfter: ttl,
		}
	}

	message := &entity.Message{
		Body:        s.sanitizer.Sanitize(req.Body),
		CommunityID: communityID,
		UserID:      user.ID,
	}
	if req.ImageURL != "" {
		message.ImageURL = &req.ImageURL
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	resp := shape(message, user)

	// Fan out to live subscribers. A missing broker only degrades the live
	// path; the message itself is already stored.
	if s.redisClient != nil {
		payload, err := json.Marshal(resp)
		if err == nil {
			if err := s.redisClient.Publish(ctx, ChannelForCommunity(communityID), payload).Err(); err != nil {
				zap.L().Warn("failed to publish message", zap.String("community_id", communityID.String()), zap.Error(err))
			}
		}
	}

	// Sending a message ends the sender's typing state.
	_ = s.messageRepo.DeleteTyping(ctx, communityID, user.ID)

	return resp, nil
}

func (s *messageService) ListMessages(ctx context.Context, communityID uuid.UUID) ([]messageDto.MessageResponse, error) {
	if _, err := s.communityRepo.FindByID(ctx, communityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("community not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	messages, err := s.messageRepo.FindNewestByCommunity(ctx, communityID, 100)
	if err != nil {
		return nil, err
	}

	// The repo hands back newest first; clients render oldest first.
	responses := make([]messageDto.MessageResponse, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		m := &messages[i]
		responses = append(responses, *shape(m, &m.User))
	}
	return responses, nil
}

func (s *messageService) SetTyping(ctx context.Context, externalID string, communityID uuid.UUID, isTyping bool) error {
	user, err := s.requireUser(ctx, externalID)
	if err != nil {
		return err
	}

	if !isTyping {
		return s.messageRepo.DeleteTyping(ctx, communityID, user.ID)
	}
	return s.messageRepo.UpsertTyping(ctx, communityID, user.ID, user.Username)
}

func (s *messageService) GetTypingUsers(ctx context.Context, communityID uuid.UUID) ([]messageDto.TypingUserResponse, error) {
	indicators, err := s.messageRepo.ListTypingByCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}

	active := make([]messageDto.TypingUserResponse, 0, len(indicators))
	var expired []uuid.UUID
	for _, ind := range indicators {
		if time.Since(ind.LastTypingAt) < typingExpiry {
			active = append(active, messageDto.TypingUserResponse{
				UserID:   ind.UserID,
				Username: ind.Username,
			})
		} else {
			expired = append(expired, ind.ID)
		}
	}

	if err := s.messageRepo.DeleteTypingByIDs(ctx, expired); err != nil {
		zap.L().Warn("failed to clear expired typing indicators", zap.Error(err))
	}

	return active, nil
}

func (s *messageService) requireUser(ctx context.Context, externalID string) (*entity.User, error) {
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

func shape(message *entity.Message, author *entity.User) *messageDto.MessageResponse {
	return &messageDto.MessageResponse{
		ID:          message.ID,
		Body:        message.Body,
		ImageURL:    message.ImageURL,
		CommunityID: message.CommunityID,
		CreatedAt:   message.CreatedAt,
		Author: messageDto.MessageAuthor{
			ID:         author.ID,
			ExternalID: author.ExternalID,
			Username:   author.Username,
			AvatarURL:  author.AvatarURL,
		},
	}
}
