package realtime

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	chat "tradechat/internal/pkg/chat/application/domain"
)

// MessagePayload is the wire shape of a message inside realtime frames.
type MessagePayload struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	AuthorID       string    `json:"author_id"`
	RecipientID    string    `json:"recipient_id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewMessageEvent is the outbound frame broadcast to a conversation's room
// after a message has been durably appended.
type NewMessageEvent struct {
	Type           string         `json:"type"`
	ConversationID string         `json:"conversation_id"`
	Message        MessagePayload `json:"message"`
}

// ToPayload converts a domain message to its wire shape.
func ToPayload(m chat.Message) MessagePayload {
	return MessagePayload{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		AuthorID:       m.AuthorID,
		RecipientID:    m.RecipientID,
		Body:           m.Body,
		CreatedAt:      m.CreatedAt,
	}
}

// Fanout publishes persisted messages into hub rooms. PublishMessage is
// called synchronously from the serialized append path, so room delivery
// order always matches log append order for a given conversation.
type Fanout struct {
	hub    *Hub
	logger *zap.Logger
}

func NewFanout(hub *Hub, logger *zap.Logger) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{hub: hub, logger: logger}
}

// PublishMessage broadcasts m to the conversation's room, skipping the
// author's originating session. Delivery failures are logged, never surfaced
// to the sender.
func (f *Fanout) PublishMessage(m chat.Message, excludeSessionID string) {
	event := NewMessageEvent{
		Type:           "new-message",
		ConversationID: m.ConversationID,
		Message:        ToPayload(m),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		f.logger.Error("encode new-message event", zap.String("message_id", m.ID), zap.Error(err))
		return
	}

	delivered := f.hub.Broadcast(m.ConversationID, payload, excludeSessionID)
	f.logger.Debug("fan-out",
		zap.String("conversation_id", m.ConversationID),
		zap.String("message_id", m.ID),
		zap.Int("delivered", delivered),
	)
}
