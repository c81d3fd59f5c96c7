package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"noria.fr/campusnet/internal/entity"
)

type CommunityRepository interface {
	Create(ctx context.Context, community *entity.Community) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Community, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Community, error)
	FindNewest(ctx context.Context, limit int) ([]entity.Community, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Community, error)
	FindByCreator(ctx context.Context, creatorID uuid.UUID) ([]entity.Community, error)
}

type communityRepository struct {
	db *gorm.DB
}

func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Create(ctx context.Context, community *entity.Community) error {
	return r.db.WithContext(ctx).Create(community).Error
}

func (r *communityRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Community, error) {
	var community entity.Community
	if err := r.db.WithContext(ctx).First(&community, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) FindBySlug(ctx context.Context, slug string) (*entity.Community, error) {
	var community entity.Community
	if err := r.db.WithContext(ctx).First(&community, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) FindNewest(ctx context.Context, limit int) ([]entity.Community, error) {
	var communities []entity.Community
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&communities).Error
	return communities, err
}

func (r *communityRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Community, error) {
	if len(ids) == 0 {
		return []entity.Community{}, nil
	}
	var communities []entity.Community
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&communities).Error
	return communities, err
}

func (r *communityRepository) FindByCreator(ctx context.Context, creatorID uuid.UUID) ([]entity.Community, error) {
	var communities []entity.Community
	err := r.db.WithContext(ctx).
		Where("created_by_id = ?", creatorID).
		Order("created_at DESC").
		Find(&communities).Error
	return communities, err
}
