package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"noria.fr/campusnet/internal/entity"
	"noria.fr/campusnet/internal/modules/user/dto"
	"noria.fr/campusnet/internal/modules/user/repository"
	"noria.fr/campusnet/pkg/apperror"
)

func setupUserService(t *testing.T) UserService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.User{}))
	return NewUserService(repository.NewUserRepository(db))
}

func TestSyncUserCreatesLocalRow(t *testing.T) {
	svc := setupUserService(t)

	user, err := svc.SyncUser(context.Background(), "ext_1", dto.SyncUserRequest{
		Username: "alice",
		Email:    "alice@campus.test",
	})
	require.NoError(t, err)
	require.Equal(t, "ext_1", user.ExternalID)
	require.Equal(t, "alice", user.Username)
	require.NotEqual(t, "", user.ID.String())
}

func TestSyncUserIsIdempotentByExternalID(t *testing.T) {
	svc := setupUserService(t)
	ctx := context.Background()

	first, err := svc.SyncUser(ctx, "ext_1", dto.SyncUserRequest{
		Username: "alice",
		Email:    "alice@campus.test",
	})
	require.NoError(t, err)

	// A re-sync with different profile fields keeps the original row.
	second, err := svc.SyncUser(ctx, "ext_1", dto.SyncUserRequest{
		Username: "alice-renamed",
		Email:    "other@campus.test",
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "alice", second.Username)
}

func TestSyncUserRejectsTakenUsername(t *testing.T) {
	svc := setupUserService(t)
	ctx := context.Background()

	_, err := svc.SyncUser(ctx, "ext_1", dto.SyncUserRequest{
		Username: "alice",
		Email:    "alice@campus.test",
	})
	require.NoError(t, err)

	_, err = svc.SyncUser(ctx, "ext_2", dto.SyncUserRequest{
		Username: "alice",
		Email:    "imposter@campus.test",
	})
	require.ErrorIs(t, err, apperror.ErrConflict)
}

func TestSyncUserRequiresIdentity(t *testing.T) {
	svc := setupUserService(t)

	_, err := svc.SyncUser(context.Background(), "", dto.SyncUserRequest{
		Username: "ghost",
		Email:    "ghost@campus.test",
	})
	require.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestGetCurrentUserUnknownIdentity(t *testing.T) {
	svc := setupUserService(t)

	_, err := svc.GetCurrentUser(context.Background(), "ext_missing")
	require.ErrorIs(t, err, apperror.ErrUnauthorized)
}
