package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chat "tradechat/internal/pkg/chat/application/domain"
)

func startedConversation(t *testing.T, repo interface {
	GetOrCreateConversation(ctx context.Context, low, high string, now time.Time) (chat.Conversation, bool, error)
}, a, b string) chat.Conversation {
	t.Helper()
	low, high := chat.NormalizePair(a, b)
	conv, _, err := repo.GetOrCreateConversation(context.Background(), low, high, time.Now().UTC())
	require.NoError(t, err)
	return conv
}

func TestSendMessagePersistsAndPublishes(t *testing.T) {
	repo := newTestRepo()
	conv := startedConversation(t, repo, "buyer", "seller")
	pub := &fakePublisher{}
	uc := NewSendMessageUseCase(repo, nil, pub)

	msg, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID:  conv.ID,
		AuthorID:        "buyer",
		Body:            "  Is this still available?  ",
		OriginSessionID: "sess-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "Is this still available?", msg.Body)
	assert.Equal(t, "seller", msg.RecipientID)

	require.Equal(t, 1, pub.count())
	assert.Equal(t, msg.ID, pub.published[0].ID)
	assert.Equal(t, "sess-1", pub.excluded[0])

	stored, err := repo.ListMessages(context.Background(), conv.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, msg.ID, stored[0].ID)
}

func TestSendMessageRejectsEmptyBody(t *testing.T) {
	repo := newTestRepo()
	conv := startedConversation(t, repo, "buyer", "seller")
	pub := &fakePublisher{}
	uc := NewSendMessageUseCase(repo, nil, pub)

	for _, body := range []string{"", "   ", "\n\t"} {
		_, err := uc.Execute(context.Background(), SendMessageInput{ConversationID: conv.ID, AuthorID: "buyer", Body: body})
		assert.ErrorIs(t, err, chat.ErrEmptyMessage, "body %q", body)
	}
	assert.Equal(t, 0, pub.count())
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	repo := newTestRepo()
	conv := startedConversation(t, repo, "buyer", "seller")
	pub := &fakePublisher{}
	uc := NewSendMessageUseCase(repo, nil, pub)

	_, err := uc.Execute(context.Background(), SendMessageInput{ConversationID: conv.ID, AuthorID: "stranger", Body: "hi"})
	assert.ErrorIs(t, err, chat.ErrNotParticipant)
	assert.Equal(t, 0, pub.count())
}

func TestSendMessageUnknownConversation(t *testing.T) {
	uc := NewSendMessageUseCase(newTestRepo(), nil, &fakePublisher{})

	_, err := uc.Execute(context.Background(), SendMessageInput{ConversationID: "nope", AuthorID: "buyer", Body: "hi"})
	assert.ErrorIs(t, err, chat.ErrNotFound)
}

func TestSendMessageRetriesTransientFailures(t *testing.T) {
	mem := newTestRepo()
	conv := startedConversation(t, mem, "buyer", "seller")
	flaky := &flakyRepo{ChatRepository: mem, failures: 2}
	pub := &fakePublisher{}
	uc := NewSendMessageUseCase(flaky, nil, pub)

	msg, err := uc.Execute(context.Background(), SendMessageInput{ConversationID: conv.ID, AuthorID: "buyer", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 3, flaky.attempts)
	assert.Equal(t, 1, pub.count())
	assert.Equal(t, msg.ID, pub.published[0].ID)
}

func TestSendMessageGivesUpAfterBoundedRetries(t *testing.T) {
	mem := newTestRepo()
	conv := startedConversation(t, mem, "buyer", "seller")
	flaky := &flakyRepo{ChatRepository: mem, failures: 5}
	pub := &fakePublisher{}
	uc := NewSendMessageUseCase(flaky, nil, pub)

	_, err := uc.Execute(context.Background(), SendMessageInput{ConversationID: conv.ID, AuthorID: "buyer", Body: "hello"})
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, appendAttempts, flaky.attempts)

	// a message that never persisted is never published
	assert.Equal(t, 0, pub.count())
}

func TestSendMessageConcurrentAppendsAllLand(t *testing.T) {
	repo := newTestRepo()
	conv := startedConversation(t, repo, "buyer", "seller")
	pub := &fakePublisher{}
	uc := NewSendMessageUseCase(repo, nil, pub)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			author := "buyer"
			if i%2 == 1 {
				author = "seller"
			}
			_, err := uc.Execute(context.Background(), SendMessageInput{
				ConversationID: conv.ID,
				AuthorID:       author,
				Body:           fmt.Sprintf("msg-%d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	msgs, err := repo.ListMessages(context.Background(), conv.ID, n*2, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, n)
	assert.Equal(t, n, pub.count())
}
