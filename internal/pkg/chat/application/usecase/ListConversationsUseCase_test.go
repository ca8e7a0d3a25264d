package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chat "tradechat/internal/pkg/chat/application/domain"
)

func TestListConversationsDecoratedAndOrdered(t *testing.T) {
	repo := newTestRepo()
	dir := newFakeDirectory("me", "alice", "bob")
	uc := NewListConversationsUseCase(repo, dir)
	ctx := context.Background()

	withAlice := startedConversation(t, repo, "me", "alice")
	withBob := startedConversation(t, repo, "me", "bob")

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	seedMessages(t, repo, withAlice, 1, base)
	seedMessages(t, repo, withBob, 2, base.Add(time.Minute))

	summaries, err := uc.Execute(ctx, ListConversationsInput{UserID: "me"})
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// conversation with the most recent message comes first
	assert.Equal(t, withBob.ID, summaries[0].Conversation.ID)
	assert.Equal(t, withAlice.ID, summaries[1].Conversation.ID)

	assert.Equal(t, "nick-bob", summaries[0].Counterpart.Nickname)
	assert.Equal(t, "nick-alice", summaries[1].Counterpart.Nickname)

	require.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, "msg-1", summaries[0].LastMessage.Body)
}

func TestListConversationsUnreadCounts(t *testing.T) {
	repo := newTestRepo()
	uc := NewListConversationsUseCase(repo, newFakeDirectory("me", "alice"))
	ctx := context.Background()

	conv := startedConversation(t, repo, "alice", "me")
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		msg, err := chat.NewMessage(conv, "alice", "ping", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		_, err = repo.AppendMessage(ctx, msg)
		require.NoError(t, err)
	}

	summaries, err := uc.Execute(ctx, ListConversationsInput{UserID: "me"})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 3, summaries[0].UnreadCount)

	// the author sees no unread in the same conversation
	summaries, err = uc.Execute(ctx, ListConversationsInput{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 0, summaries[0].UnreadCount)
}

func TestListConversationsEmptyConversation(t *testing.T) {
	repo := newTestRepo()
	uc := NewListConversationsUseCase(repo, newFakeDirectory("me", "alice"))

	startedConversation(t, repo, "me", "alice")

	summaries, err := uc.Execute(context.Background(), ListConversationsInput{UserID: "me"})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Nil(t, summaries[0].LastMessage)
	assert.Equal(t, 0, summaries[0].UnreadCount)
}

func TestListConversationsDeletedCounterpart(t *testing.T) {
	repo := newTestRepo()
	// only "me" resolves; the counterpart account is gone
	uc := NewListConversationsUseCase(repo, newFakeDirectory("me"))

	startedConversation(t, repo, "me", "ghost")

	summaries, err := uc.Execute(context.Background(), ListConversationsInput{UserID: "me"})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "ghost", summaries[0].Counterpart.ID)
	assert.Empty(t, summaries[0].Counterpart.Nickname)
}

func TestListConversationsNoneYet(t *testing.T) {
	uc := NewListConversationsUseCase(newTestRepo(), newFakeDirectory("me"))

	summaries, err := uc.Execute(context.Background(), ListConversationsInput{UserID: "me"})
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
