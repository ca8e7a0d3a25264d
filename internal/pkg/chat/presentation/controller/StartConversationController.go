package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	queueport "tradechat/internal/infrastructure/queue/port"
	"tradechat/internal/pkg/chat/application/task"
	"tradechat/internal/pkg/chat/application/usecase"
)

// StartConversationController handles the request-or-create conversation
// endpoint (one controller per endpoint).
type StartConversationController struct {
	UC     *usecase.StartConversationUseCase
	Queue  queueport.Client // optional; product decoration is skipped when nil
	Logger *zap.Logger
}

func NewStartConversationController(uc *usecase.StartConversationUseCase, queue queueport.Client, logger *zap.Logger) *StartConversationController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StartConversationController{UC: uc, Queue: queue, Logger: logger}
}

type startConversationRequest struct {
	CounterpartID    string `json:"counterpart_id"`
	ContextProductID string `json:"context_product_id"`
}

func (h *StartConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req startConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		out, err := h.UC.Execute(ctx, usecase.StartConversationInput{
			RequesterID:      CurrentUser(c),
			CounterpartID:    req.CounterpartID,
			ContextProductID: req.ContextProductID,
		})
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		if out.Created && req.ContextProductID != "" && h.Queue != nil {
			h.enqueueDecoration(ctx, out.Conversation.ID, req.ContextProductID)
		}

		status := http.StatusOK
		if out.Created {
			status = http.StatusCreated
		}
		c.JSON(status, gin.H{
			"conversation_id":  out.Conversation.ID,
			"created":          out.Created,
			"created_at":       out.Conversation.CreatedAt,
			"last_activity_at": out.Conversation.LastActivityAt,
		})
	}
}

// enqueueDecoration schedules the catalog lookup out of band. Failure to
// enqueue is logged and swallowed: decoration is cosmetic and must never
// block or fail conversation creation.
func (h *StartConversationController) enqueueDecoration(ctx context.Context, conversationID, productID string) {
	payload, err := json.Marshal(task.DecorateConversationPayload{
		ConversationID: conversationID,
		ProductID:      productID,
	})
	if err != nil {
		h.Logger.Error("encode decoration payload", zap.Error(err))
		return
	}
	opts := queueport.EnqueueOption{Queue: "chat", MaxRetry: 5, UniqueTTL: time.Minute}
	if _, err := h.Queue.Enqueue(ctx, queueport.Task{Type: task.DecorateConversationTaskType, Payload: payload}, opts); err != nil {
		h.Logger.Warn("enqueue decoration task",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
	}
}
