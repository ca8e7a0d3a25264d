package chat

import "time"

// Conversation is the single 1:1 thread between two users. The pair is
// semantically unordered: storage keeps the lexicographically lower id in
// ParticipantLow so that {A,B} and {B,A} resolve to the same row.
type Conversation struct {
	ID              string    `db:"id"`
	ParticipantLow  string    `db:"participant_low"`
	ParticipantHigh string    `db:"participant_high"`
	CreatedAt       time.Time `db:"created_at"`
	LastActivityAt  time.Time `db:"last_activity_at"`
}

// NormalizePair maps an unordered user pair onto its canonical storage order.
func NormalizePair(a, b string) (low, high string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// HasParticipant tells whether userID is part of this conversation.
func (c Conversation) HasParticipant(userID string) bool {
	return userID != "" && (userID == c.ParticipantLow || userID == c.ParticipantHigh)
}

// Other returns the counterpart of userID, or "" when userID is not a participant.
func (c Conversation) Other(userID string) string {
	switch userID {
	case c.ParticipantLow:
		return c.ParticipantHigh
	case c.ParticipantHigh:
		return c.ParticipantLow
	default:
		return ""
	}
}

// Participants returns both member ids in canonical order.
func (c Conversation) Participants() [2]string {
	return [2]string{c.ParticipantLow, c.ParticipantHigh}
}
