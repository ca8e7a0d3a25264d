package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	chat "tradechat/internal/pkg/chat/application/domain"
	repository "tradechat/internal/pkg/chat/persistence/repository/port"
)

// MarkReadInput records that the reader has viewed the conversation up to At.
// A zero At means "now".
type MarkReadInput struct {
	ConversationID string
	ReaderID       string
	At             time.Time
}

// MarkReadUseCase advances the reader's participant marker. The marker is the
// source of truth for unread counts; the per-message read flag is also
// flipped but only as a display aid.
type MarkReadUseCase struct {
	Repo repository.ChatRepository
}

func NewMarkReadUseCase(repo repository.ChatRepository) *MarkReadUseCase {
	return &MarkReadUseCase{Repo: repo}
}

func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) error {
	if in.ConversationID == "" || in.ReaderID == "" {
		return fmt.Errorf("conversation id and reader id are required")
	}

	conv, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !conv.HasParticipant(in.ReaderID) {
		return chat.ErrNotParticipant
	}

	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	if err := uc.Repo.AdvanceMarker(ctx, conv.ID, in.ReaderID, at); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := uc.Repo.MarkMessagesRead(ctx, conv.ID, in.ReaderID, at); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
