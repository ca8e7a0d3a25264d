package chat

import "time"

// Marker records how far into a conversation a participant has read.
// Primary key: (ConversationID, UserID). A nil LastReadAt means the user has
// never opened the conversation; every counterpart message counts as unread.
type Marker struct {
	ConversationID string     `db:"conversation_id"`
	UserID         string     `db:"user_id"`
	LastReadAt     *time.Time `db:"last_read_at"`
}

// Advance moves the marker forward to at. It is monotonic: a timestamp at or
// before the current position leaves the marker untouched and reports false.
func (m *Marker) Advance(at time.Time) bool {
	at = at.UTC()
	if m.LastReadAt != nil && !at.After(*m.LastReadAt) {
		return false
	}
	m.LastReadAt = &at
	return true
}

// Unread reports whether msg counts as unread for this marker's user:
// authored by the counterpart and created strictly after the marker.
func (m Marker) Unread(msg Message) bool {
	if msg.AuthorID == m.UserID {
		return false
	}
	if m.LastReadAt == nil {
		return true
	}
	return msg.CreatedAt.After(*m.LastReadAt)
}
