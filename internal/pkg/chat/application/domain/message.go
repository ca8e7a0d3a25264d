package chat

import (
	"strings"
	"time"
)

// Message is an immutable log entry in a conversation. Only the legacy Read
// flag ever changes after insert; unread counts come from the participant
// marker, not from this flag.
type Message struct {
	ID             string    `db:"id"`
	ConversationID string    `db:"conversation_id"`
	AuthorID       string    `db:"author_id"`
	RecipientID    string    `db:"recipient_id"`
	Body           string    `db:"body"`
	CreatedAt      time.Time `db:"created_at"`
	Read           bool      `db:"read"`
}

// NewMessage validates a message for the given conversation and returns it
// ready to persist. The recipient is derived as the other participant.
//
// Validations:
// - Author must be a participant of the conversation
// - Body must be non-empty after trimming whitespace
//
// The ID is left empty; the repository assigns it on insert.
func NewMessage(conv Conversation, authorID, body string, now time.Time) (Message, error) {
	if !conv.HasParticipant(authorID) {
		return Message{}, ErrNotParticipant
	}

	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return Message{}, ErrEmptyMessage
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	return Message{
		ConversationID: conv.ID,
		AuthorID:       authorID,
		RecipientID:    conv.Other(authorID),
		Body:           trimmed,
		CreatedAt:      now.UTC(),
	}, nil
}
