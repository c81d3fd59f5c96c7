package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"noria.fr/campusnet/internal/entity"
)

// FollowRepository manages the membership/subscription edges. Community
// joins and the message send-gate both go through it.
type FollowRepository interface {
	// Create inserts the edge, silently keeping the existing row when an
	// identical edge is already present (ON CONFLICT DO NOTHING against
	// the unique index, so racing duplicate joins collapse to one row).
	Create(ctx context.Context, follow *entity.Follow) error
	Delete(ctx context.Context, followerID uuid.UUID, targetType string, targetID uuid.UUID) error
	Exists(ctx context.Context, followerID uuid.UUID, targetType string, targetID uuid.UUID) (bool, error)
	CountByTarget(ctx context.Context, targetType string, targetID uuid.UUID) (int64, error)
	ListByFollower(ctx context.Context, followerID uuid.UUID, targetType string) ([]entity.Follow, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, follow *entity.Follow) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(follow).Error
}

func (r *followRepository) Delete(ctx context.Context, followerID uuid.UUID, targetType string, targetID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND target_type = ? AND target_id = ?", followerID, targetType, targetID).
		Delete(&entity.Follow{}).Error
}

func (r *followRepository) Exists(ctx context.Context, followerID uuid.UUID, targetType string, targetID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Follow{}).
		Where("follower_id = ? AND target_type = ? AND target_id = ?", followerID, targetType, targetID).
		Count(&count).Error
	return count > 0, err
}

func (r *followRepository) CountByTarget(ctx context.Context, targetType string, targetID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Follow{}).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Count(&count).Error
	return count, err
}

func (r *followRepository) ListByFollower(ctx context.Context, followerID uuid.UUID, targetType string) ([]entity.Follow, error) {
	var follows []entity.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND target_type = ?", followerID, targetType).
		Find(&follows).Error
	return follows, err
}
