package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	cacheport "tradechat/internal/infrastructure/cache/port"
	chat "tradechat/internal/pkg/chat/application/domain"
	repository "tradechat/internal/pkg/chat/persistence/repository/port"
	directoryport "tradechat/internal/pkg/directory/port"
)

// ProductContext is the display metadata borrowed from the listing that
// prompted a conversation. Stored in the cache by the decoration task, never
// persisted with the conversation.
type ProductContext struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
}

// ConversationContextKey is the cache key the decoration task and the detail
// view share.
func ConversationContextKey(conversationID string) string {
	return "chat:conversation:" + conversationID + ":context"
}

// GetConversationInput identifies the conversation and the caller.
type GetConversationInput struct {
	ConversationID string
	RequesterID    string
}

// GetConversationOutput is the detail view of one conversation.
type GetConversationOutput struct {
	Conversation chat.Conversation
	Counterpart  directoryport.User
	UnreadCount  int
	LastMessage  *chat.Message
	Context      *ProductContext
}

// GetConversationUseCase loads one conversation for display, enforcing the
// participant check on every read.
type GetConversationUseCase struct {
	Repo      repository.ChatRepository
	Directory directoryport.Directory
	Cache     cacheport.Cache // optional; product context is skipped when nil
}

func NewGetConversationUseCase(repo repository.ChatRepository, dir directoryport.Directory, cache cacheport.Cache) *GetConversationUseCase {
	return &GetConversationUseCase{Repo: repo, Directory: dir, Cache: cache}
}

func (uc *GetConversationUseCase) Execute(ctx context.Context, in GetConversationInput) (*GetConversationOutput, error) {
	if in.ConversationID == "" || in.RequesterID == "" {
		return nil, fmt.Errorf("conversation id and requester id are required")
	}

	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.HasParticipant(in.RequesterID) {
		return nil, chat.ErrNotParticipant
	}

	out := &GetConversationOutput{Conversation: conv}

	otherID := conv.Other(in.RequesterID)
	if user, err := uc.Directory.Resolve(ctx, otherID); err == nil {
		out.Counterpart = user
	} else {
		out.Counterpart = directoryport.User{ID: otherID}
	}

	unread, err := uc.Repo.UnreadCount(ctx, conv.ID, in.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	out.UnreadCount = unread

	last, err := uc.Repo.LatestMessage(ctx, conv.ID)
	switch {
	case err == nil:
		out.LastMessage = &last
	case errors.Is(err, chat.ErrNotFound):
	default:
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if uc.Cache != nil {
		if raw, err := uc.Cache.Get(ctx, ConversationContextKey(conv.ID)); err == nil {
			var pc ProductContext
			if json.Unmarshal([]byte(raw), &pc) == nil {
				out.Context = &pc
			}
		}
	}

	return out, nil
}
