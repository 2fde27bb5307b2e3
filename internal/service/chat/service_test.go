package chat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/hire-match/internal/db"
	svcErr "github.com/oggyb/hire-match/internal/errors"
	"github.com/oggyb/hire-match/internal/identity"
	"github.com/oggyb/hire-match/internal/service/chat"
	"github.com/oggyb/hire-match/internal/testutil"
)

// setupService creates candidates 1, 2 and 3 and a candidate match between
// 1 and 2 without a chat yet.
func setupService(t *testing.T) (*chat.Service, *testutil.Env, db.Match) {
	t.Helper()
	env := testutil.Setup(t)
	env.Candidate(t, 1)
	env.Candidate(t, 2)
	env.Candidate(t, 3)

	m := db.Match{User1ID: 1, User2ID: 2, MatchType: db.SwipeCandidate, PairKey: db.PairKey(1, 2, db.SwipeCandidate, nil)}
	require.NoError(t, env.DB.Create(&m).Error)

	return chat.NewChatService(env.App), env, m
}

func user(id uint64) identity.Identity {
	return identity.Identity{UserID: id, LevelID: db.LevelUser, Type: db.UserCandidate}
}

func TestPostChat_ProvisionsMemberships(t *testing.T) {
	ctx := context.Background()
	svc, env, m := setupService(t)

	c, err := svc.PostChat(ctx, user(1), m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, c.MatchID)
	assert.Equal(t, uint64(1), c.User1ID)
	assert.Equal(t, uint64(2), c.User2ID)

	var members []db.UserChat
	require.NoError(t, env.DB.Where("chat_id = ?", c.ID).Order("user_id").Find(&members).Error)
	require.Len(t, members, 2)
	assert.Equal(t, uint64(1), members[0].UserID)
	assert.Equal(t, uint64(2), members[1].UserID)

	chats, err := svc.GetChatsByUser(ctx, user(2), 2)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, c.ID, chats[0].ID)
}

func TestPostChat_Guards(t *testing.T) {
	ctx := context.Background()
	svc, _, m := setupService(t)

	_, err := svc.PostChat(ctx, user(1), 999)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	_, err = svc.PostChat(ctx, user(3), m.ID)
	assert.ErrorIs(t, err, svcErr.ErrForbidden)
}

// TestPostChat_OneChatPerMatch: repeated calls by either participant return
// the chat the match already owns.
func TestPostChat_OneChatPerMatch(t *testing.T) {
	ctx := context.Background()
	svc, env, m := setupService(t)

	first, err := svc.PostChat(ctx, user(1), m.ID)
	require.NoError(t, err)
	second, err := svc.PostChat(ctx, user(2), m.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(1), env.Count(t, &db.Chat{}, "match_id = ?", m.ID))
	assert.Equal(t, int64(2), env.Count(t, &db.UserChat{}))
}

// TestChatMatchIsUnique: the schema refuses a second chat row for one match.
func TestChatMatchIsUnique(t *testing.T) {
	_, env, m := setupService(t)

	require.NoError(t, env.DB.Create(&db.Chat{MatchID: m.ID, User1ID: 1, User2ID: 2}).Error)
	err := env.DB.Create(&db.Chat{MatchID: m.ID, User1ID: 2, User2ID: 1}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

// TestProvision_RollsBackWithCaller: memberships written by Provision vanish
// when the surrounding transaction fails.
func TestProvision_RollsBackWithCaller(t *testing.T) {
	ctx := context.Background()
	svc, env, m := setupService(t)

	err := env.DB.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Provision(ctx, tx, &m)
		require.NoError(t, err)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, int64(0), env.Count(t, &db.Chat{}))
	assert.Equal(t, int64(0), env.Count(t, &db.UserChat{}))
}

func TestMessages_SidesAndReadBack(t *testing.T) {
	ctx := context.Background()
	svc, _, m := setupService(t)

	c, err := svc.PostChat(ctx, user(1), m.ID)
	require.NoError(t, err)

	sent, err := svc.PostMessage(ctx, user(1), c.ID, "hello")
	require.NoError(t, err)
	assert.NotZero(t, sent.ID)
	assert.False(t, sent.CreatedAt.IsZero())
	assert.Equal(t, "hello", sent.MessageText)

	_, err = svc.PostMessage(ctx, user(2), c.ID, "hi back")
	require.NoError(t, err)

	msgs, err := svc.GetMessages(ctx, user(2), c.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].MessageText)
	assert.Equal(t, chat.SideLeft, msgs[0].Side)
	assert.Equal(t, chat.SideRight, msgs[1].Side)

	_, err = svc.GetMessages(ctx, user(3), c.ID)
	assert.ErrorIs(t, err, svcErr.ErrForbidden)

	_, err = svc.PostMessage(ctx, user(3), c.ID, "let me in")
	assert.ErrorIs(t, err, svcErr.ErrForbidden)

	_, err = svc.PostMessage(ctx, user(1), c.ID, "   ")
	assert.ErrorIs(t, err, svcErr.ErrInvalidArgument)
}

// TestDeleteChat removes messages, memberships and the chat in one go.
func TestDeleteChat(t *testing.T) {
	ctx := context.Background()
	svc, env, m := setupService(t)

	c, err := svc.PostChat(ctx, user(1), m.ID)
	require.NoError(t, err)
	_, err = svc.PostMessage(ctx, user(1), c.ID, "hello")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteChat(ctx, user(2), c.ID))
	assert.Equal(t, int64(0), env.Count(t, &db.Chat{}))
	assert.Equal(t, int64(0), env.Count(t, &db.UserChat{}))
	assert.Equal(t, int64(0), env.Count(t, &db.Message{}))

	assert.ErrorIs(t, svc.DeleteChat(ctx, user(2), c.ID), svcErr.ErrNotFound)
}

// TestDeleteChat_NonParticipantRollsBack: the participant-scoped delete of the
// chat row misses, so the messages and memberships deleted before it return.
func TestDeleteChat_NonParticipantRollsBack(t *testing.T) {
	ctx := context.Background()
	svc, env, m := setupService(t)

	c, err := svc.PostChat(ctx, user(1), m.ID)
	require.NoError(t, err)
	_, err = svc.PostMessage(ctx, user(1), c.ID, "hello")
	require.NoError(t, err)

	err = svc.DeleteChat(ctx, user(3), c.ID)
	assert.ErrorIs(t, err, svcErr.ErrForbidden)

	assert.Equal(t, int64(1), env.Count(t, &db.Chat{}))
	assert.Equal(t, int64(2), env.Count(t, &db.UserChat{}))
	assert.Equal(t, int64(1), env.Count(t, &db.Message{}))
}
