package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tradechat/internal/pkg/chat/application/usecase"
)

// ListConversationsController serves the caller's inbox.
type ListConversationsController struct {
	UC *usecase.ListConversationsUseCase
}

func NewListConversationsController(uc *usecase.ListConversationsUseCase) *ListConversationsController {
	return &ListConversationsController{UC: uc}
}

func (h *ListConversationsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		summaries, err := h.UC.Execute(ctx, usecase.ListConversationsInput{UserID: CurrentUser(c)})
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}

		out := make([]gin.H, 0, len(summaries))
		for _, s := range summaries {
			row := gin.H{
				"conversation_id": s.Conversation.ID,
				"counterpart": gin.H{
					"id":       s.Counterpart.ID,
					"nickname": s.Counterpart.Nickname,
				},
				"last_activity_at": s.Conversation.LastActivityAt,
				"unread_count":     s.UnreadCount,
			}
			if s.LastMessage != nil {
				row["last_message"] = s.LastMessage.Body
			}
			out = append(out, row)
		}

		c.JSON(http.StatusOK, gin.H{
			"conversations": out,
			"count":         len(out),
		})
	}
}
