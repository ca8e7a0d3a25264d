package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tradechat/internal/pkg/chat/application/usecase"
)

// GetConversationController serves the conversation detail view.
type GetConversationController struct {
	UC *usecase.GetConversationUseCase
}

func NewGetConversationController(uc *usecase.GetConversationUseCase) *GetConversationController {
	return &GetConversationController{UC: uc}
}

func (h *GetConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		out, err := h.UC.Execute(ctx, usecase.GetConversationInput{
			ConversationID: conversationID,
			RequesterID:    CurrentUser(c),
		})
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		participants := out.Conversation.Participants()
		resp := gin.H{
			"conversation_id":  out.Conversation.ID,
			"participants":     participants[:],
			"counterpart":      out.Counterpart,
			"created_at":       out.Conversation.CreatedAt,
			"last_activity_at": out.Conversation.LastActivityAt,
			"unread_count":     out.UnreadCount,
		}
		if out.LastMessage != nil {
			resp["last_message_preview"] = out.LastMessage.Body
		}
		if out.Context != nil {
			resp["product_context"] = out.Context
		}

		c.JSON(http.StatusOK, resp)
	}
}
