package repository

import (
	"context"
	"errors"
	"time"

	chat "tradechat/internal/pkg/chat/application/domain"
)

// ErrTransient marks a retryable storage failure (lost connection, deadlock,
// serialization conflict). Callers may retry a bounded number of times before
// surfacing the error.
var ErrTransient = errors.New("chat repository: transient storage error")

// ChatRepository defines persistence operations for the chat domain.
//
// Participant membership is carried on the conversation row itself; the
// participant table only holds per-user read markers.
type ChatRepository interface {
	// GetOrCreateConversation returns the conversation for the canonical
	// pair (low, high), creating it with the given timestamp when absent.
	// created reports whether this call inserted the row.
	GetOrCreateConversation(ctx context.Context, low, high string, now time.Time) (conv chat.Conversation, created bool, err error)

	// GetConversation returns chat.ErrNotFound for an unknown id.
	GetConversation(ctx context.Context, conversationID string) (chat.Conversation, error)

	// ListConversationsForUser returns every conversation the user belongs
	// to, ordered by last activity descending.
	ListConversationsForUser(ctx context.Context, userID string) ([]chat.Conversation, error)

	// AppendMessage persists m (assigning its ID) and advances the owning
	// conversation's last_activity_at to m.CreatedAt. Both writes happen
	// atomically with respect to concurrent appends.
	AppendMessage(ctx context.Context, m chat.Message) (chat.Message, error)

	// ListMessages returns messages in ascending chronological order,
	// ties broken by id. An out-of-range offset yields an empty slice.
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error)

	// LatestMessage returns chat.ErrNotFound when the conversation has no
	// messages yet.
	LatestMessage(ctx context.Context, conversationID string) (chat.Message, error)

	// AdvanceMarker upserts the (conversation, user) read marker, moving it
	// monotonically forward. Earlier timestamps are a no-op.
	AdvanceMarker(ctx context.Context, conversationID, userID string, at time.Time) error

	// Marker returns the stored marker, or one with a nil LastReadAt when
	// the user has never read the conversation.
	Marker(ctx context.Context, conversationID, userID string) (chat.Marker, error)

	// UnreadCount counts messages authored by the other participant with
	// created_at strictly after the user's marker.
	UnreadCount(ctx context.Context, conversationID, userID string) (int, error)

	// MarkMessagesRead flips the legacy per-message read flag for messages
	// delivered to readerID up to and including upTo. Display aid only.
	MarkMessagesRead(ctx context.Context, conversationID, readerID string, upTo time.Time) error
}
