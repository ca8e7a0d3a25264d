package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "tradechat/internal/pkg/chat/application/domain"
	repository "tradechat/internal/pkg/chat/persistence/repository/port"
)

// PgChatRepository implements the chat repository port on PostgreSQL via pgx.
type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

func (r *PgChatRepository) GetOrCreateConversation(ctx context.Context, low, high string, now time.Time) (chat.Conversation, bool, error) {
	if r == nil || r.pool == nil {
		return chat.Conversation{}, false, errors.New("PgChatRepository: nil pool")
	}

	var conv chat.Conversation
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat.conversation (participant_low, participant_high, created_at, last_activity_at)
		VALUES ($1::uuid, $2::uuid, $3, $3)
		ON CONFLICT (participant_low, participant_high) DO NOTHING
		RETURNING id::text, participant_low::text, participant_high::text, created_at, last_activity_at
	`, low, high, now.UTC()).Scan(&conv.ID, &conv.ParticipantLow, &conv.ParticipantHigh, &conv.CreatedAt, &conv.LastActivityAt)
	if err == nil {
		return conv, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return chat.Conversation{}, false, classify(err)
	}

	// Conflict: the pair already has a conversation.
	err = r.pool.QueryRow(ctx, `
		SELECT id::text, participant_low::text, participant_high::text, created_at, last_activity_at
		FROM chat.conversation
		WHERE participant_low = $1::uuid AND participant_high = $2::uuid
	`, low, high).Scan(&conv.ID, &conv.ParticipantLow, &conv.ParticipantHigh, &conv.CreatedAt, &conv.LastActivityAt)
	if err != nil {
		return chat.Conversation{}, false, classify(err)
	}
	return conv, false, nil
}

func (r *PgChatRepository) GetConversation(ctx context.Context, conversationID string) (chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return chat.Conversation{}, errors.New("PgChatRepository: nil pool")
	}
	var conv chat.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, participant_low::text, participant_high::text, created_at, last_activity_at
		FROM chat.conversation
		WHERE id = $1::uuid
	`, conversationID).Scan(&conv.ID, &conv.ParticipantLow, &conv.ParticipantHigh, &conv.CreatedAt, &conv.LastActivityAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.Conversation{}, chat.ErrNotFound
	}
	if err != nil {
		return chat.Conversation{}, classify(err)
	}
	return conv, nil
}

func (r *PgChatRepository) ListConversationsForUser(ctx context.Context, userID string) ([]chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, participant_low::text, participant_high::text, created_at, last_activity_at
		FROM chat.conversation
		WHERE participant_low = $1::uuid OR participant_high = $1::uuid
		ORDER BY last_activity_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var convs []chat.Conversation
	for rows.Next() {
		var conv chat.Conversation
		if err := rows.Scan(&conv.ID, &conv.ParticipantLow, &conv.ParticipantHigh, &conv.CreatedAt, &conv.LastActivityAt); err != nil {
			return nil, classify(err)
		}
		convs = append(convs, conv)
	}
	if rows.Err() != nil {
		return nil, classify(rows.Err())
	}
	return convs, nil
}

// AppendMessage inserts the message and touches the conversation's activity
// timestamp in one transaction so a concurrent append can never observe the
// message without the touch or vice versa.
func (r *PgChatRepository) AppendMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	if r == nil || r.pool == nil {
		return chat.Message{}, errors.New("PgChatRepository: nil pool")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return chat.Message{}, classify(err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO chat.message (conversation_id, author_id, recipient_id, body, created_at, read)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5, false)
		RETURNING id::text
	`, m.ConversationID, m.AuthorID, m.RecipientID, m.Body, m.CreatedAt).Scan(&m.ID)
	if err != nil {
		return chat.Message{}, classify(err)
	}

	// GREATEST guards against clock skew between writers; the activity
	// timestamp never moves backwards.
	ct, err := tx.Exec(ctx, `
		UPDATE chat.conversation
		SET last_activity_at = GREATEST(last_activity_at, $2)
		WHERE id = $1::uuid
	`, m.ConversationID, m.CreatedAt)
	if err != nil {
		return chat.Message{}, classify(err)
	}
	if ct.RowsAffected() == 0 {
		return chat.Message{}, chat.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return chat.Message{}, classify(err)
	}
	return m, nil
}

func (r *PgChatRepository) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, conversation_id::text, author_id::text, recipient_id::text, body, created_at, read
		FROM chat.message
		WHERE conversation_id = $1::uuid
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.AuthorID, &m.RecipientID, &m.Body, &m.CreatedAt, &m.Read); err != nil {
			return nil, classify(err)
		}
		msgs = append(msgs, m)
	}
	if rows.Err() != nil {
		return nil, classify(rows.Err())
	}
	return msgs, nil
}

func (r *PgChatRepository) LatestMessage(ctx context.Context, conversationID string) (chat.Message, error) {
	if r == nil || r.pool == nil {
		return chat.Message{}, errors.New("PgChatRepository: nil pool")
	}
	var m chat.Message
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, conversation_id::text, author_id::text, recipient_id::text, body, created_at, read
		FROM chat.message
		WHERE conversation_id = $1::uuid
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, conversationID).Scan(&m.ID, &m.ConversationID, &m.AuthorID, &m.RecipientID, &m.Body, &m.CreatedAt, &m.Read)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.Message{}, chat.ErrNotFound
	}
	if err != nil {
		return chat.Message{}, classify(err)
	}
	return m, nil
}

func (r *PgChatRepository) AdvanceMarker(ctx context.Context, conversationID, userID string, at time.Time) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat.participant (conversation_id, user_id, last_read_at)
		VALUES ($1::uuid, $2::uuid, $3)
		ON CONFLICT (conversation_id, user_id)
		DO UPDATE SET last_read_at = GREATEST(COALESCE(chat.participant.last_read_at, 'epoch'::timestamptz), EXCLUDED.last_read_at)
	`, conversationID, userID, at.UTC())
	return classify(err)
}

func (r *PgChatRepository) Marker(ctx context.Context, conversationID, userID string) (chat.Marker, error) {
	if r == nil || r.pool == nil {
		return chat.Marker{}, errors.New("PgChatRepository: nil pool")
	}
	marker := chat.Marker{ConversationID: conversationID, UserID: userID}
	err := r.pool.QueryRow(ctx, `
		SELECT last_read_at
		FROM chat.participant
		WHERE conversation_id = $1::uuid AND user_id = $2::uuid
	`, conversationID, userID).Scan(&marker.LastReadAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lazily created: absence means "never read anything".
		return marker, nil
	}
	if err != nil {
		return chat.Marker{}, classify(err)
	}
	return marker, nil
}

func (r *PgChatRepository) UnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgChatRepository: nil pool")
	}
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM chat.message m
		WHERE m.conversation_id = $1::uuid
		  AND m.author_id <> $2::uuid
		  AND m.created_at > COALESCE((
			SELECT p.last_read_at FROM chat.participant p
			WHERE p.conversation_id = $1::uuid AND p.user_id = $2::uuid
		  ), 'epoch'::timestamptz)
	`, conversationID, userID).Scan(&count)
	if err != nil {
		return 0, classify(err)
	}
	return count, nil
}

func (r *PgChatRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID string, upTo time.Time) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE chat.message
		SET read = true
		WHERE conversation_id = $1::uuid
		  AND recipient_id = $2::uuid
		  AND created_at <= $3
		  AND NOT read
	`, conversationID, readerID, upTo.UTC())
	return classify(err)
}

// classify wraps retryable pg failures with repository.ErrTransient so the
// application layer can apply its bounded retry policy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03", // lock_not_available
			"57P03": // cannot_connect_now
			return fmt.Errorf("%w: %v", repository.ErrTransient, err)
		}
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" { // connection_exception class
			return fmt.Errorf("%w: %v", repository.ErrTransient, err)
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", repository.ErrTransient, err)
	}
	return err
}
