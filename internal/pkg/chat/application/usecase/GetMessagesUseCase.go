package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "tradechat/internal/pkg/chat/application/domain"
	repository "tradechat/internal/pkg/chat/persistence/repository/port"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// GetMessagesInput carries parameters to fetch a transcript page.
// Pages are 1-based; out-of-range pages yield an empty slice, not an error.
type GetMessagesInput struct {
	ConversationID string
	RequesterID    string
	Page           int
	PageSize       int
}

// GetMessagesUseCase returns a conversation's messages in ascending
// chronological order after verifying the requester is a participant.
type GetMessagesUseCase struct {
	Repo repository.ChatRepository
}

func NewGetMessagesUseCase(repo repository.ChatRepository) *GetMessagesUseCase {
	return &GetMessagesUseCase{Repo: repo}
}

func (uc *GetMessagesUseCase) Execute(ctx context.Context, in GetMessagesInput) ([]chat.Message, error) {
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

	page := in.Page
	if page <= 0 {
		page = 1
	}
	size := in.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	msgs, err := uc.Repo.ListMessages(ctx, conv.ID, size, (page-1)*size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
