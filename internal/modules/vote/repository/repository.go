package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"noria.fr/campusnet/internal/entity"
)

type VoteRepository interface {
	// Toggle applies the tri-state transition for (user, target): no row
	// inserts, same kind deletes, different kind overwrites in place.
	// Returns whether a row with the requested kind exists after the call.
	Toggle(ctx context.Context, vote *entity.Vote) (bool, error)
	FindUserVote(ctx context.Context, userID uuid.UUID, targetType string, targetID uuid.UUID) (*entity.Vote, error)
	CountByKind(ctx context.Context, targetType string, targetID uuid.UUID, kind string) (int64, error)
	CountByTarget(ctx context.Context, targetType string, targetID uuid.UUID) (int64, error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Toggle(ctx context.Context, vote *entity.Vote) (bool, error) {
	// Use Find with slice to avoid "record not found" log noise from GORM's First()
	var existing []entity.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?",
			vote.UserID, vote.TargetType, vote.TargetID).
		Limit(1).
		Find(&existing).Error

	if err != nil {
		return false, err
	}

	if len(existing) > 0 {
		record := existing[0]

		if record.Kind == vote.Kind {
			// Same kind again -> toggle off
			if err := r.db.WithContext(ctx).Delete(&record).Error; err != nil {
				return false, err
			}
			return false, nil
		}

		// Different kind -> overwrite in place
		record.Kind = vote.Kind
		if err := r.db.WithContext(ctx).Save(&record).Error; err != nil {
			return false, err
		}
		return true, nil
	}

	// No row yet -> insert. The unique index on (user, target) absorbs a
	// racing duplicate toggle: the loser's insert does nothing.
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(vote).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *voteRepository) FindUserVote(ctx context.Context, userID uuid.UUID, targetType string, targetID uuid.UUID) (*entity.Vote, error) {
	var votes []entity.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).
		Limit(1).
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	if len(votes) == 0 {
		return nil, nil
	}
	return &votes[0], nil
}

func (r *voteRepository) CountByKind(ctx context.Context, targetType string, targetID uuid.UUID, kind string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Vote{}).
		Where("target_type = ? AND target_id = ? AND kind = ?", targetType, targetID, kind).
		Count(&count).Error
	return count, err
}

func (r *voteRepository) CountByTarget(ctx context.Context, targetType string, targetID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Vote{}).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Count(&count).Error
	return count, err
}
