package adapter

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	chat "tradechat/internal/pkg/chat/application/domain"
	repository "tradechat/internal/pkg/chat/persistence/repository/port"
)

// MemChatRepository is an in-memory implementation of the chat repository
// port. It backs tests and local runs without a database and mirrors the
// Postgres adapter's semantics, including ordering and marker monotonicity.
type MemChatRepository struct {
	mu            sync.RWMutex
	conversations map[string]chat.Conversation    // id -> conversation
	byPair        map[[2]string]string            // (low, high) -> conversation id
	messages      map[string][]chat.Message       // conversation id -> append order
	markers       map[string]map[string]time.Time // conversation id -> user id -> last read
}

func NewMemChatRepository() *MemChatRepository {
	return &MemChatRepository{
		conversations: make(map[string]chat.Conversation),
		byPair:        make(map[[2]string]string),
		messages:      make(map[string][]chat.Message),
		markers:       make(map[string]map[string]time.Time),
	}
}

var _ repository.ChatRepository = (*MemChatRepository)(nil)

func (r *MemChatRepository) GetOrCreateConversation(ctx context.Context, low, high string, now time.Time) (chat.Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := [2]string{low, high}
	if id, ok := r.byPair[key]; ok {
		return r.conversations[id], false, nil
	}

	conv := chat.Conversation{
		ID:              uuid.NewString(),
		ParticipantLow:  low,
		ParticipantHigh: high,
		CreatedAt:       now.UTC(),
		LastActivityAt:  now.UTC(),
	}
	r.conversations[conv.ID] = conv
	r.byPair[key] = conv.ID
	return conv, true, nil
}

func (r *MemChatRepository) GetConversation(ctx context.Context, conversationID string) (chat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[conversationID]
	if !ok {
		return chat.Conversation{}, chat.ErrNotFound
	}
	return conv, nil
}

func (r *MemChatRepository) ListConversationsForUser(ctx context.Context, userID string) ([]chat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var convs []chat.Conversation
	for _, conv := range r.conversations {
		if conv.HasParticipant(userID) {
			convs = append(convs, conv)
		}
	}
	sort.Slice(convs, func(i, j int) bool {
		if !convs[i].LastActivityAt.Equal(convs[j].LastActivityAt) {
			return convs[i].LastActivityAt.After(convs[j].LastActivityAt)
		}
		return convs[i].ID > convs[j].ID
	})
	return convs, nil
}

func (r *MemChatRepository) AppendMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[m.ConversationID]
	if !ok {
		return chat.Message{}, chat.ErrNotFound
	}

	m.ID = uuid.NewString()
	r.messages[m.ConversationID] = append(r.messages[m.ConversationID], m)

	if m.CreatedAt.After(conv.LastActivityAt) {
		conv.LastActivityAt = m.CreatedAt
		r.conversations[conv.ID] = conv
	}
	return m, nil
}

func (r *MemChatRepository) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.sortedMessagesLocked(conversationID)
	if offset >= len(msgs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(msgs) {
		end = len(msgs)
	}
	out := make([]chat.Message, end-offset)
	copy(out, msgs[offset:end])
	return out, nil
}

func (r *MemChatRepository) LatestMessage(ctx context.Context, conversationID string) (chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.sortedMessagesLocked(conversationID)
	if len(msgs) == 0 {
		return chat.Message{}, chat.ErrNotFound
	}
	return msgs[len(msgs)-1], nil
}

func (r *MemChatRepository) AdvanceMarker(ctx context.Context, conversationID, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	marks := r.markers[conversationID]
	if marks == nil {
		marks = make(map[string]time.Time)
		r.markers[conversationID] = marks
	}
	at = at.UTC()
	if current, ok := marks[userID]; !ok || at.After(current) {
		marks[userID] = at
	}
	return nil
}

func (r *MemChatRepository) Marker(ctx context.Context, conversationID, userID string) (chat.Marker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	marker := chat.Marker{ConversationID: conversationID, UserID: userID}
	if at, ok := r.markers[conversationID][userID]; ok {
		t := at
		marker.LastReadAt = &t
	}
	return marker, nil
}

func (r *MemChatRepository) UnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	marker := chat.Marker{ConversationID: conversationID, UserID: userID}
	if at, ok := r.markers[conversationID][userID]; ok {
		t := at
		marker.LastReadAt = &t
	}

	count := 0
	for _, m := range r.messages[conversationID] {
		if marker.Unread(m) {
			count++
		}
	}
	return count, nil
}

func (r *MemChatRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID string, upTo time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.messages[conversationID]
	for i := range msgs {
		if msgs[i].RecipientID == readerID && !msgs[i].CreatedAt.After(upTo) {
			msgs[i].Read = true
		}
	}
	return nil
}

func (r *MemChatRepository) sortedMessagesLocked(conversationID string) []chat.Message {
	msgs := make([]chat.Message, len(r.messages[conversationID]))
	copy(msgs, r.messages[conversationID])
	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].ID < msgs[j].ID
	})
	return msgs
}
