package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "tradechat/internal/pkg/chat/application/domain"
	repository "tradechat/internal/pkg/chat/persistence/repository/port"
	directoryport "tradechat/internal/pkg/directory/port"
)

// ConversationSummary is one row of a user's inbox: the conversation, the
// counterpart's profile, the unread count and the latest message (nil when
// the conversation has no messages yet).
type ConversationSummary struct {
	Conversation chat.Conversation
	Counterpart  directoryport.User
	UnreadCount  int
	LastMessage  *chat.Message
}

// ListConversationsInput wraps the caller's identity.
type ListConversationsInput struct {
	UserID string
}

// ListConversationsUseCase returns the caller's conversations ordered by
// last activity descending, decorated for inbox display.
type ListConversationsUseCase struct {
	Repo      repository.ChatRepository
	Directory directoryport.Directory
}

func NewListConversationsUseCase(repo repository.ChatRepository, dir directoryport.Directory) *ListConversationsUseCase {
	return &ListConversationsUseCase{Repo: repo, Directory: dir}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, in ListConversationsInput) ([]ConversationSummary, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	convs, err := uc.Repo.ListConversationsForUser(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	summaries := make([]ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summary := ConversationSummary{Conversation: conv}

		otherID := conv.Other(in.UserID)
		if user, err := uc.Directory.Resolve(ctx, otherID); err == nil {
			summary.Counterpart = user
		} else {
			// A deleted account still appears in the inbox by id.
			summary.Counterpart = directoryport.User{ID: otherID}
		}

		unread, err := uc.Repo.UnreadCount(ctx, conv.ID, in.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		summary.UnreadCount = unread

		last, err := uc.Repo.LatestMessage(ctx, conv.ID)
		switch {
		case err == nil:
			summary.LastMessage = &last
		case errors.Is(err, chat.ErrNotFound):
			// no messages yet
		default:
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}
