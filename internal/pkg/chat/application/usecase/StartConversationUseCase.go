package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalogport "tradechat/internal/pkg/catalog/port"
	chat "tradechat/internal/pkg/chat/application/domain"
	repository "tradechat/internal/pkg/chat/persistence/repository/port"
	directoryport "tradechat/internal/pkg/directory/port"
)

// StartConversationInput carries the data to open (or find) the conversation
// between the requester and a counterpart. When CounterpartID is empty,
// ContextProductID must be set and the listing's seller becomes the
// counterpart, matching the "contact the seller" flow.
type StartConversationInput struct {
	RequesterID      string
	CounterpartID    string
	ContextProductID string
}

// StartConversationOutput reports the conversation and whether this call
// created it.
type StartConversationOutput struct {
	Conversation chat.Conversation
	Created      bool
}

// StartConversationUseCase resolves both participants, dedups on the
// unordered pair and returns the single conversation between them.
type StartConversationUseCase struct {
	Repo      repository.ChatRepository
	Directory directoryport.Directory
	Catalog   catalogport.Catalog
}

func NewStartConversationUseCase(repo repository.ChatRepository, dir directoryport.Directory, cat catalogport.Catalog) *StartConversationUseCase {
	return &StartConversationUseCase{Repo: repo, Directory: dir, Catalog: cat}
}

func (uc *StartConversationUseCase) Execute(ctx context.Context, in StartConversationInput) (*StartConversationOutput, error) {
	if in.RequesterID == "" {
		return nil, fmt.Errorf("requester id is required")
	}

	counterpart := in.CounterpartID
	if counterpart == "" {
		if in.ContextProductID == "" {
			return nil, fmt.Errorf("counterpart_id or context_product_id is required")
		}
		if uc.Catalog == nil {
			return nil, chat.ErrInvalidParticipant
		}
		product, err := uc.Catalog.GetProduct(ctx, in.ContextProductID)
		if errors.Is(err, catalogport.ErrProductNotFound) {
			return nil, chat.ErrInvalidParticipant
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		counterpart = product.SellerID
		if counterpart == "" {
			return nil, chat.ErrInvalidParticipant
		}
	}

	if counterpart == in.RequesterID {
		return nil, chat.ErrSelfConversation
	}

	for _, id := range []string{in.RequesterID, counterpart} {
		if _, err := uc.Directory.Resolve(ctx, id); err != nil {
			if errors.Is(err, directoryport.ErrUnknownUser) {
				return nil, chat.ErrInvalidParticipant
			}
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	low, high := chat.NormalizePair(in.RequesterID, counterpart)
	conv, created, err := uc.Repo.GetOrCreateConversation(ctx, low, high, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return &StartConversationOutput{Conversation: conv, Created: created}, nil
}
