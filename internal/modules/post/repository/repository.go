package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"noria.fr/campusnet/internal/entity"
)

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error)
	FindByTitle(ctx context.Context, title string) (*entity.Post, error)
	FindFeed(ctx context.Context, limit int) ([]entity.Post, error)
	FindByCommunity(ctx context.Context, communityID uuid.UUID, limit int) ([]entity.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	var post entity.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Community").
		First(&post, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindByTitle(ctx context.Context, title string) (*entity.Post, error) {
	var post entity.Post
	if err := r.db.WithContext(ctx).First(&post, "title = ?", title).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindFeed(ctx context.Context, limit int) ([]entity.Post, error) {
	var posts []entity.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Community").
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) FindByCommunity(ctx context.Context, communityID uuid.UUID, limit int) ([]entity.Post, error) {
	var posts []entity.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Community").
		Where("community_id = ?", communityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}
