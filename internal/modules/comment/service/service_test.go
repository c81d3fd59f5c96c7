package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"noria.fr/campusnet/internal/entity"
	commentDto "noria.fr/campusnet/internal/modules/comment/dto"
	commentRepo "noria.fr/campusnet/internal/modules/comment/repository"
	postRepo "noria.fr/campusnet/internal/modules/post/repository"
	userRepo "noria.fr/campusnet/internal/modules/user/repository"
	voteRepo "noria.fr/campusnet/internal/modules/vote/repository"
	"noria.fr/campusnet/pkg/apperror"
)

type commentFixture struct {
	svc    CommentService
	db     *gorm.DB
	author *entity.User
	reader *entity.User
	post   *entity.Post
}

func setupCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.User{}, &entity.Community{}, &entity.Post{},
		&entity.Comment{}, &entity.Vote{},
	))

	author := &entity.User{ExternalID: "ext_author", Username: "author", Email: "author@campus.test"}
	require.NoError(t, db.Create(author).Error)
	reader := &entity.User{ExternalID: "ext_reader", Username: "reader", Email: "reader@campus.test"}
	require.NoError(t, db.Create(reader).Error)

	post := &entity.Post{Title: "Discussion", Content: "talk here", AuthorID: author.ID}
	require.NoError(t, db.Create(post).Error)

	svc := NewCommentService(
		commentRepo.NewCommentRepository(db),
		postRepo.NewPostRepository(db),
		userRepo.NewUserRepository(db),
		voteRepo.NewVoteRepository(db),
	)
	return &commentFixture{svc: svc, db: db, author: author, reader: reader, post: post}
}

func TestCreateCommentOnMissingPost(t *testing.T) {
	f := setupCommentFixture(t)

	ghost := entity.Post{}
	require.NoError(t, ghost.BeforeCreate(nil))

	_, err := f.svc.CreateComment(context.Background(), f.author.ExternalID, ghost.ID, commentDto.CreateCommentRequest{
		Content: "into the void",
	})
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCreateCommentAndList(t *testing.T) {
	f := setupCommentFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateComment(ctx, f.author.ExternalID, f.post.ID, commentDto.CreateCommentRequest{
		Content: "nice post",
	})
	require.NoError(t, err)
	require.Equal(t, "nice post", created.Content)
	require.Equal(t, "author", created.Author.Username)

	comments, err := f.svc.GetComments(ctx, f.post.ID, "")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.Zero(t, comments[0].LikeCount)
	require.False(t, comments[0].UserLiked)
}

func TestToggleLikeRoundTrip(t *testing.T) {
	f := setupCommentFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateComment(ctx, f.author.ExternalID, f.post.ID, commentDto.CreateCommentRequest{
		Content: "like me",
	})
	require.NoError(t, err)

	liked, err := f.svc.ToggleLike(ctx, f.reader.ExternalID, created.ID)
	require.NoError(t, err)
	require.True(t, liked.Liked)
	require.Equal(t, int64(1), liked.LikeCount)

	// The reader sees their own like; the author does not see one of theirs.
	comments, err := f.svc.GetComments(ctx, f.post.ID, f.reader.ExternalID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.True(t, comments[0].UserLiked)
	require.Equal(t, int64(1), comments[0].LikeCount)

	comments, err = f.svc.GetComments(ctx, f.post.ID, f.author.ExternalID)
	require.NoError(t, err)
	require.False(t, comments[0].UserLiked)

	unliked, err := f.svc.ToggleLike(ctx, f.reader.ExternalID, created.ID)
	require.NoError(t, err)
	require.False(t, unliked.Liked)
	require.Zero(t, unliked.LikeCount)
}

func TestToggleLikeOnMissingComment(t *testing.T) {
	f := setupCommentFixture(t)

	ghost := entity.Comment{}
	require.NoError(t, ghost.BeforeCreate(nil))

	_, err := f.svc.ToggleLike(context.Background(), f.reader.ExternalID, ghost.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCommentsSanitized(t *testing.T) {
	f := setupCommentFixture(t)

	created, err := f.svc.CreateComment(context.Background(), f.author.ExternalID, f.post.ID, commentDto.CreateCommentRequest{
		Content: `watch <script>steal()</script> out`,
	})
	require.NoError(t, err)
	require.NotContains(t, created.Content, "<script>")
}

func TestCreateCommentRequiresAuth(t *testing.T) {
	f := setupCommentFixture(t)

	_, err := f.svc.CreateComment(context.Background(), "", f.post.ID, commentDto.CreateCommentRequest{
		Content: "anon",
	})
	require.ErrorIs(t, err, apperror.ErrUnauthorized)
}
