package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"noria.fr/campusnet/internal/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	// FindNewestByCommunity returns up to limit messages, newest first.
	FindNewestByCommunity(ctx context.Context, communityID uuid.UUID, limit int) ([]entity.Message, error)

	UpsertTyping(ctx context.Context, communityID, userID uuid.UUID, username string) error
	DeleteTyping(ctx context.Context, communityID, userID uuid.UUID) error
	ListTypingByCommunity(ctx context.Context, communityID uuid.UUID) ([]entity.TypingIndicator, error)
	DeleteTypingByIDs(ctx context.Context, ids []uuid.UUID) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *entity.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) FindNewestByCommunity(ctx context.Context, communityID uuid.UUID, limit int) ([]entity.Message, error) {
	var messages []entity.Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("community_id = ?", communityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *messageRepository) UpsertTyping(ctx context.Context, communityID, userID uuid.UUID, username string) error {
	var existing []entity.TypingIndicator
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return err
	}

	now := time.Now()

	if len(existing) > 0 {
		indicator := existing[0]
		indicator.Username = username
		indicator.LastTypingAt = now
		return r.db.WithContext(ctx).Save(&indicator).Error
	}

	return r.db.WithContext(ctx).Create(&entity.TypingIndicator{
		CommunityID:  communityID,
		UserID:       userID,
		Username:     username,
		LastTypingAt: now,
	}).Error
}

func (r *messageRepository) DeleteTyping(ctx context.Context, communityID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&entity.TypingIndicator{}).Error
}

func (r *messageRepository) ListTypingByCommunity(ctx context.Context, communityID uuid.UUID) ([]entity.TypingIndicator, error) {
	var indicators []entity.TypingIndicator
	err := r.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Find(&indicators).Error
	return indicators, err
}

func (r *messageRepository) DeleteTypingByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&entity.TypingIndicator{}).Error
}
