package task

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	cacheport "tradechat/internal/infrastructure/cache/port"
	qport "tradechat/internal/infrastructure/queue/port"
	catalogport "tradechat/internal/pkg/catalog/port"
	"tradechat/internal/pkg/chat/application/usecase"
)

// DecorateConversationTaskType is the queue task name for attaching product
// display metadata to a freshly created conversation. The lookup runs out of
// band so a slow or absent catalog never blocks conversation creation.
const DecorateConversationTaskType = "chat:decorate_conversation"

// decorationTTL bounds how long stale listing metadata is shown.
const decorationTTL = 24 * time.Hour

// DecorateConversationPayload is the JSON payload transported via the queue.
type DecorateConversationPayload struct {
	ConversationID string `json:"conversationId"`
	ProductID      string `json:"productId"`
}

// RegisterDecorateConversationTask binds the task handler to the worker
// server. The handler resolves the listing and stores its display metadata
// under the conversation's context cache key.
func RegisterDecorateConversationTask(srv qport.Server, cat catalogport.Catalog, cache cacheport.Cache, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv.Register(DecorateConversationTaskType, func(ctx context.Context, t qport.Task) error {
		var p DecorateConversationPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying will not help
			logger.Warn("drop malformed decoration task", zap.Error(err))
			return nil
		}
		if p.ConversationID == "" || p.ProductID == "" {
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		product, err := cat.GetProduct(ctx, p.ProductID)
		if errors.Is(err, catalogport.ErrProductNotFound) {
			// Listing was removed before the task ran; nothing to decorate.
			logger.Info("decoration skipped, product gone",
				zap.String("conversation_id", p.ConversationID),
				zap.String("product_id", p.ProductID),
			)
			return nil
		}
		if err != nil {
			return err // retry per server policy
		}

		raw, err := json.Marshal(usecase.ProductContext{
			ProductID: product.ID,
			Title:     product.Title,
			Price:     product.Price,
		})
		if err != nil {
			return err
		}
		return cache.Set(ctx, usecase.ConversationContextKey(p.ConversationID), string(raw), decorationTTL)
	})
}
