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

func setupVoteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.User{}, &entity.Vote{}))
	return db
}

func seedVoter(t *testing.T, db *gorm.DB, username string) *entity.User {
	t.Helper()
	user := &entity.User{
		ExternalID: "ext_" + username,
		Username:   username,
		Email:      username + "@campus.test",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestToggleInsertsWhenNoVoteExists(t *testing.T) {
	db := setupVoteDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()
	user := seedVoter(t, db, "alice")
	postID := uuid.Must(uuid.NewV7())

	active, err := repo.Toggle(ctx, &entity.Vote{
		UserID:     user.ID,
		TargetType: entity.VoteTargetPost,
		TargetID:   postID,
		Kind:       entity.VoteLike,
	})
	require.NoError(t, err)
	require.True(t, active)

	count, err := repo.CountByKind(ctx, entity.VoteTargetPost, postID, entity.VoteLike)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestToggleSameKindRemovesVote(t *testing.T) {
	db := setupVoteDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()
	user := seedVoter(t, db, "alice")
	postID := uuid.Must(uuid.NewV7())

	vote := entity.Vote{
		UserID:     user.ID,
		TargetType: entity.VoteTargetPost,
		TargetID:   postID,
		Kind:       entity.VoteLike,
	}
	_, err := repo.Toggle(ctx, &vote)
	require.NoError(t, err)

	active, err := repo.Toggle(ctx, &entity.Vote{
		UserID:     user.ID,
		TargetType: entity.VoteTargetPost,
		TargetID:   postID,
		Kind:       entity.VoteLike,
	})
	require.NoError(t, err)
	require.False(t, active)

	count, err := repo.CountByTarget(ctx, entity.VoteTargetPost, postID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestToggleDifferentKindSwitchesVote(t *testing.T) {
	db := setupVoteDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()
	user := seedVoter(t, db, "alice")
	postID := uuid.Must(uuid.NewV7())

	_, err := repo.Toggle(ctx, &entity.Vote{
		UserID:     user.ID,
		TargetType: entity.VoteTargetPost,
		TargetID:   postID,
		Kind:       entity.VoteLike,
	})
	require.NoError(t, err)

	active, err := repo.Toggle(ctx, &entity.Vote{
		UserID:     user.ID,
		TargetType: entity.VoteTargetPost,
		TargetID:   postID,
		Kind:       entity.VoteDislike,
	})
	require.NoError(t, err)
	require.True(t, active)

	// Still exactly one row, now a dislike.
	total, err := repo.CountByTarget(ctx, entity.VoteTargetPost, postID)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	dislikes, err := repo.CountByKind(ctx, entity.VoteTargetPost, postID, entity.VoteDislike)
	require.NoError(t, err)
	require.Equal(t, int64(1), dislikes)

	vote, err := repo.FindUserVote(ctx, user.ID, entity.VoteTargetPost, postID)
	require.NoError(t, err)
	require.NotNil(t, vote)
	require.Equal(t, entity.VoteDislike, vote.Kind)
}

func TestToggleKindlessLikeRoundTrip(t *testing.T) {
	db := setupVoteDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()
	user := seedVoter(t, db, "bob")
	commentID := uuid.Must(uuid.NewV7())

	like := func() (bool, error) {
		return repo.Toggle(ctx, &entity.Vote{
			UserID:     user.ID,
			TargetType: entity.VoteTargetComment,
			TargetID:   commentID,
		})
	}

	active, err := like()
	require.NoError(t, err)
	require.True(t, active)

	active, err = like()
	require.NoError(t, err)
	require.False(t, active)

	count, err := repo.CountByTarget(ctx, entity.VoteTargetComment, commentID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestVotesAreIndependentPerUser(t *testing.T) {
	db := setupVoteDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()
	alice := seedVoter(t, db, "alice")
	bob := seedVoter(t, db, "bob")
	postID := uuid.Must(uuid.NewV7())

	_, err := repo.Toggle(ctx, &entity.Vote{
		UserID: alice.ID, TargetType: entity.VoteTargetPost, TargetID: postID, Kind: entity.VoteLike,
	})
	require.NoError(t, err)
	_, err = repo.Toggle(ctx, &entity.Vote{
		UserID: bob.ID, TargetType: entity.VoteTargetPost, TargetID: postID, Kind: entity.VoteDislike,
	})
	require.NoError(t, err)

	likes, err := repo.CountByKind(ctx, entity.VoteTargetPost, postID, entity.VoteLike)
	require.NoError(t, err)
	require.Equal(t, int64(1), likes)

	dislikes, err := repo.CountByKind(ctx, entity.VoteTargetPost, postID, entity.VoteDislike)
	require.NoError(t, err)
	require.Equal(t, int64(1), dislikes)
}

func TestFindUserVoteReturnsNilWithoutRow(t *testing.T) {
	db := setupVoteDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()
	user := seedVoter(t, db, "alice")

	vote, err := repo.FindUserVote(ctx, user.ID, entity.VoteTargetPost, uuid.Must(uuid.NewV7()))
	require.NoError(t, err)
	require.Nil(t, vote)
}
