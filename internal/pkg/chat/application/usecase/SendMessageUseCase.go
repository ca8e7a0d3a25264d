package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradechat/internal/infrastructure/locking"
	chat "tradechat/internal/pkg/chat/application/domain"
	repository "tradechat/internal/pkg/chat/persistence/repository/port"
)

// appendAttempts bounds retries of the durable append on transient storage
// failures before the error is surfaced to the caller.
const appendAttempts = 3

// MessagePublisher delivers a durably appended message to the conversation's
// realtime room. Implementations must not block on slow receivers.
type MessagePublisher interface {
	PublishMessage(m chat.Message, excludeSessionID string)
}

// SendMessageInput carries the data needed to append a new message.
// OriginSessionID, when set, identifies the author's own realtime session so
// fan-out can skip it (the client renders optimistically).
type SendMessageInput struct {
	ConversationID  string
	AuthorID        string
	Body            string
	OriginSessionID string
}

// SendMessageUseCase appends a message to the conversation's log and fans it
// out to the room. Persist and publish run under a per-conversation lock:
// appends to one conversation are serialized, so last_activity_at always
// reflects the latest message and publish order matches append order. A
// message that fails to persist is never published.
type SendMessageUseCase struct {
	Repo      repository.ChatRepository
	Locks     *locking.KeyedMutex
	Publisher MessagePublisher
}

func NewSendMessageUseCase(repo repository.ChatRepository, locks *locking.KeyedMutex, pub MessagePublisher) *SendMessageUseCase {
	if locks == nil {
		locks = locking.NewKeyedMutex()
	}
	return &SendMessageUseCase{Repo: repo, Locks: locks, Publisher: pub}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	if in.ConversationID == "" || in.AuthorID == "" {
		return nil, fmt.Errorf("conversation id and author id are required")
	}

	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	unlock := uc.Locks.Lock(conv.ID)
	defer unlock()

	msg, err := chat.NewMessage(conv, in.AuthorID, in.Body, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	var saved chat.Message
	for attempt := 0; attempt < appendAttempts; attempt++ {
		saved, err = uc.Repo.AppendMessage(ctx, msg)
		if err == nil || !errors.Is(err, repository.ErrTransient) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if uc.Publisher != nil {
		uc.Publisher.PublishMessage(saved, in.OriginSessionID)
	}
	return &saved, nil
}
