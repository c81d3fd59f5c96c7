package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"noria.fr/campusnet/internal/entity"
	communityRepo "noria.fr/campusnet/internal/modules/community/repository"
	followRepo "noria.fr/campusnet/internal/modules/follow/repository"
	messageDto "noria.fr/campusnet/internal/modules/message/dto"
	messageRepo "noria.fr/campusnet/internal/modules/message/repository"
	userRepo "noria.fr/campusnet/internal/modules/user/repository"
	"noria.fr/campusnet/pkg/apperror"
)

type messageFixture struct {
	svc       MessageService
	db        *gorm.DB
	community *entity.Community
	member    *entity.User
	outsider  *entity.User
}

func setupMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.User{}, &entity.Community{}, &entity.Follow{},
		&entity.Message{}, &entity.TypingIndicator{},
	))

	member := &entity.User{ExternalID: "ext_member", Username: "member", Email: "member@campus.test"}
	require.NoError(t, db.Create(member).Error)
	outsider := &entity.User{ExternalID: "ext_outsider", Username: "outsider", Email: "outsider@campus.test"}
	require.NoError(t, db.Create(outsider).Error)

	community := &entity.Community{
		Name:        "General",
		Slug:        "general",
		Visibility:  entity.CommunityPublic,
		CreatedByID: member.ID,
	}
	require.NoError(t, db.Create(community).Error)

	require.NoError(t, db.Create(&entity.Follow{
		FollowerID: member.ID,
		TargetType: entity.FollowTargetCommunity,
		TargetID:   community.ID,
	}).Error)

	svc := NewMessageService(
		messageRepo.NewMessageRepository(db),
		communityRepo.NewCommunityRepository(db),
		followRepo.NewFollowRepository(db),
		userRepo.NewUserRepository(db),
		nil,
	)

	return &messageFixture{svc: svc, db: db, community: community, member: member, outsider: outsider}
}

func TestSendMessageRequiresMembership(t *testing.T) {
	f := setupMessageFixture(t)

	_, err := f.svc.SendMessage(context.Background(), f.outsider.ExternalID, f.community.ID, messageDto.SendMessageRequest{
		Body: "hello",
	})
	require.ErrorIs(t, err, apperror.ErrConflict)
	require.Contains(t, err.Error(), "you must join the community to post messages")
}

func TestSendMessagePersistsAndShapesAuthor(t *testing.T) {
	f := setupMessageFixture(t)

	resp, err := f.svc.SendMessage(context.Background(), f.member.ExternalID, f.community.ID, messageDto.SendMessageRequest{
		Body: "first!",
	})
	require.NoError(t, err)
	require.Equal(t, "first!", resp.Body)
	require.Equal(t, f.community.ID, resp.CommunityID)
	require.Equal(t, f.member.ID, resp.Author.ID)
	require.Equal(t, f.member.ExternalID, resp.Author.ExternalID)
	require.Equal(t, "member", resp.Author.Username)

	var count int64
	require.NoError(t, f.db.Model(&entity.Message{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestSendMessageStripsScriptContent(t *testing.T) {
	f := setupMessageFixture(t)

	resp, err := f.svc.SendMessage(context.Background(), f.member.ExternalID, f.community.ID, messageDto.SendMessageRequest{
		Body: `hey <script>alert("x")</script>there`,
	})
	require.NoError(t, err)
	require.NotContains(t, resp.Body, "<script>")
	require.Contains(t, resp.Body, "hey")
}

func TestSendMessageUnknownCommunity(t *testing.T) {
	f := setupMessageFixture(t)

	ghost := entity.Community{}
	require.NoError(t, ghost.BeforeCreate(nil))

	_, err := f.svc.SendMessage(context.Background(), f.member.ExternalID, ghost.ID, messageDto.SendMessageRequest{
		Body: "anyone here?",
	})
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListMessagesReturnsNewestHundredOldestFirst(t *testing.T) {
	f := setupMessageFixture(t)
	ctx := context.Background()

	base := time.Now().Add(-3 * time.Hour)
	for i := 0; i < 105; i++ {
		msg := &entity.Message{
			Body:        fmt.Sprintf("msg-%03d", i),
			CommunityID: f.community.ID,
			UserID:      f.member.ID,
		}
		require.NoError(t, f.db.Create(msg).Error)
		// Spread creation times so ordering is deterministic.
		require.NoError(t, f.db.Model(msg).Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	messages, err := f.svc.ListMessages(ctx, f.community.ID)
	require.NoError(t, err)
	require.Len(t, messages, 100)

	// The five oldest fell off; the rest come back in ascending order.
	require.Equal(t, "msg-005", messages[0].Body)
	require.Equal(t, "msg-104", messages[99].Body)
	for i := 1; i < len(messages); i++ {
		require.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
	}
}

func TestTypingIndicatorLifecycle(t *testing.T) {
	f := setupMessageFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SetTyping(ctx, f.member.ExternalID, f.community.ID, true))

	active, err := f.svc.GetTypingUsers(ctx, f.community.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "member", active[0].Username)

	// Refreshing keeps a single row per (community, user).
	require.NoError(t, f.svc.SetTyping(ctx, f.member.ExternalID, f.community.ID, true))
	var rows int64
	require.NoError(t, f.db.Model(&entity.TypingIndicator{}).Count(&rows).Error)
	require.Equal(t, int64(1), rows)

	require.NoError(t, f.svc.SetTyping(ctx, f.member.ExternalID, f.community.ID, false))
	active, err = f.svc.GetTypingUsers(ctx, f.community.ID)
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestExpiredTypingIndicatorsAreDroppedOnRead(t *testing.T) {
	f := setupMessageFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SetTyping(ctx, f.member.ExternalID, f.community.ID, true))

	// Backdate past the expiry window.
	stale := time.Now().Add(-10 * time.Second)
	require.NoError(t, f.db.Model(&entity.TypingIndicator{}).
		Where("user_id = ?", f.member.ID).
		Update("last_typing_at", stale).Error)

	active, err := f.svc.GetTypingUsers(ctx, f.community.ID)
	require.NoError(t, err)
	require.Empty(t, active)

	var rows int64
	require.NoError(t, f.db.Model(&entity.TypingIndicator{}).Count(&rows).Error)
	require.Zero(t, rows)
}

func TestSendMessageClearsSenderTyping(t *testing.T) {
	f := setupMessageFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SetTyping(ctx, f.member.ExternalID, f.community.ID, true))

	_, err := f.svc.SendMessage(ctx, f.member.ExternalID, f.community.ID, messageDto.SendMessageRequest{
		Body: "done typing",
	})
	require.NoError(t, err)

	active, err := f.svc.GetTypingUsers(ctx, f.community.ID)
	require.NoError(t, err)
	require.Empty(t, active)
}
