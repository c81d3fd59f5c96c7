package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"noria.fr/campusnet/internal/entity"
)

func setupFollowDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.User{}, &entity.Follow{}))
	return db
}

func TestCreateCollapsesDuplicateEdges(t *testing.T) {
	db := setupFollowDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	user := &entity.User{ExternalID: "ext_u", Username: "u", Email: "u@campus.test"}
	require.NoError(t, db.Create(user).Error)
	communityID := uuid.Must(uuid.NewV7())

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &entity.Follow{
			FollowerID: user.ID,
			TargetType: entity.FollowTargetCommunity,
			TargetID:   communityID,
		}))
	}

	count, err := repo.CountByTarget(ctx, entity.FollowTargetCommunity, communityID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	exists, err := repo.Exists(ctx, user.ID, entity.FollowTargetCommunity, communityID)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestDeleteRemovesEdgeAndIsIdempotent(t *testing.T) {
	db := setupFollowDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	user := &entity.User{ExternalID: "ext_u", Username: "u", Email: "u@campus.test"}
	require.NoError(t, db.Create(user).Error)
	communityID := uuid.Must(uuid.NewV7())

	require.NoError(t, repo.Create(ctx, &entity.Follow{
		FollowerID: user.ID,
		TargetType: entity.FollowTargetCommunity,
		TargetID:   communityID,
	}))

	require.NoError(t, repo.Delete(ctx, user.ID, entity.FollowTargetCommunity, communityID))
	require.NoError(t, repo.Delete(ctx, user.ID, entity.FollowTargetCommunity, communityID))

	exists, err := repo.Exists(ctx, user.ID, entity.FollowTargetCommunity, communityID)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestListByFollowerFiltersTargetType(t *testing.T) {
	db := setupFollowDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	user := &entity.User{ExternalID: "ext_u", Username: "u", Email: "u@campus.test"}
	require.NoError(t, db.Create(user).Error)

	require.NoError(t, repo.Create(ctx, &entity.Follow{
		FollowerID: user.ID,
		TargetType: entity.FollowTargetCommunity,
		TargetID:   uuid.Must(uuid.NewV7()),
	}))
	require.NoError(t, repo.Create(ctx, &entity.Follow{
		FollowerID: user.ID,
		TargetType: entity.FollowTargetUser,
		TargetID:   uuid.Must(uuid.NewV7()),
	}))

	communities, err := repo.ListByFollower(ctx, user.ID, entity.FollowTargetCommunity)
	require.NoError(t, err)
	require.Len(t, communities, 1)

	users, err := repo.ListByFollower(ctx, user.ID, entity.FollowTargetUser)
	require.NoError(t, err)
	require.Len(t, users, 1)
}
