package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"noria.fr/campusnet/internal/entity"
	commentRepo "noria.fr/campusnet/internal/modules/comment/repository"
	postRepo "noria.fr/campusnet/internal/modules/post/repository"
	userRepo "noria.fr/campusnet/internal/modules/user/repository"
	voteDto "noria.fr/campusnet/internal/modules/vote/dto"
	voteRepo "noria.fr/campusnet/internal/modules/vote/repository"
	"noria.fr/campusnet/pkg/apperror"
)

type voteFixture struct {
	svc  VoteService
	db   *gorm.DB
	user *entity.User
	post *entity.Post
}

func setupVoteFixture(t *testing.T) *voteFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.User{}, &entity.Post{}, &entity.Comment{}, &entity.Vote{},
	))

	user := &entity.User{ExternalID: "ext_voter", Username: "voter", Email: "voter@campus.test"}
	require.NoError(t, db.Create(user).Error)
	post := &entity.Post{Title: "Target", Content: "vote here", AuthorID: user.ID}
	require.NoError(t, db.Create(post).Error)

	svc := NewVoteService(
		voteRepo.NewVoteRepository(db),
		userRepo.NewUserRepository(db),
		postRepo.NewPostRepository(db),
		commentRepo.NewCommentRepository(db),
	)
	return &voteFixture{svc: svc, db: db, user: user, post: post}
}

func TestCastVoteLifecycle(t *testing.T) {
	f := setupVoteFixture(t)
	ctx := context.Background()

	counts, err := f.svc.CastVote(ctx, f.user.ExternalID, voteDto.VoteRequest{
		TargetID: f.post.ID, TargetType: entity.VoteTargetPost, VoteType: entity.VoteLike,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), counts.Upvotes)
	require.Zero(t, counts.Downvotes)
	require.NotNil(t, counts.UserVote)
	require.Equal(t, entity.VoteLike, *counts.UserVote)

	// Switching kinds replaces the vote in place.
	counts, err = f.svc.CastVote(ctx, f.user.ExternalID, voteDto.VoteRequest{
		TargetID: f.post.ID, TargetType: entity.VoteTargetPost, VoteType: entity.VoteDislike,
	})
	require.NoError(t, err)
	require.Zero(t, counts.Upvotes)
	require.Equal(t, int64(1), counts.Downvotes)
	require.Equal(t, entity.VoteDislike, *counts.UserVote)

	// Repeating the same kind toggles the vote off.
	counts, err = f.svc.CastVote(ctx, f.user.ExternalID, voteDto.VoteRequest{
		TargetID: f.post.ID, TargetType: entity.VoteTargetPost, VoteType: entity.VoteDislike,
	})
	require.NoError(t, err)
	require.Zero(t, counts.Upvotes)
	require.Zero(t, counts.Downvotes)
	require.Nil(t, counts.UserVote)
}

func TestCastVoteOnMissingTarget(t *testing.T) {
	f := setupVoteFixture(t)

	ghost := entity.Post{}
	require.NoError(t, ghost.BeforeCreate(nil))

	_, err := f.svc.CastVote(context.Background(), f.user.ExternalID, voteDto.VoteRequest{
		TargetID: ghost.ID, TargetType: entity.VoteTargetPost, VoteType: entity.VoteLike,
	})
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCastVoteRequiresAuth(t *testing.T) {
	f := setupVoteFixture(t)

	_, err := f.svc.CastVote(context.Background(), "", voteDto.VoteRequest{
		TargetID: f.post.ID, TargetType: entity.VoteTargetPost, VoteType: entity.VoteLike,
	})
	require.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestCastVoteOnComment(t *testing.T) {
	f := setupVoteFixture(t)
	ctx := context.Background()

	comment := &entity.Comment{Content: "hot take", PostID: f.post.ID, AuthorID: f.user.ID}
	require.NoError(t, f.db.Create(comment).Error)

	counts, err := f.svc.CastVote(ctx, f.user.ExternalID, voteDto.VoteRequest{
		TargetID: comment.ID, TargetType: entity.VoteTargetComment, VoteType: entity.VoteDislike,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), counts.Downvotes)
}
