package chat

import "errors"

var (
	// ErrInvalidParticipant signals a counterpart that does not resolve to a
	// known account (or a listing with no resolvable seller).
	ErrInvalidParticipant = errors.New("chat: invalid participant")

	// ErrSelfConversation signals an attempt to open a conversation with
	// oneself.
	ErrSelfConversation = errors.New("chat: cannot start a conversation with yourself")

	// ErrNotParticipant signals an operation by a user who is not a member of
	// the conversation.
	ErrNotParticipant = errors.New("chat: user is not a participant in this conversation")

	// ErrNotFound signals an unknown conversation or an empty message log
	// where one entry was expected.
	ErrNotFound = errors.New("chat: not found")

	// ErrEmptyMessage signals a message whose body is empty after trimming.
	ErrEmptyMessage = errors.New("chat: message body is empty")
)
