package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/workcity/chat-service/internal/chat"
)

// FetchPageSize bounds every cursor fetch. Clients re-poll with the
// returned high-water mark until they receive an empty page.
const FetchPageSize = 50

// MaxHistoryPageSize bounds the per_page parameter of history pagination.
const MaxHistoryPageSize = 100

// NewMessage carries the caller-supplied fields for a message append.
type NewMessage struct {
	SessionID     int64
	SenderID      int64
	Content       string
	Type          string
	AttachmentURL string
}

// AppendMessage validates and persists a message and bumps the sender's
// last_seen in the same transaction. The persisted row is returned so the
// HTTP layer can echo it to the sender immediately.
func (s *Store) AppendMessage(ctx context.Context, n NewMessage) (*chat.Message, error) {
	if n.Type == "" {
		n.Type = chat.MessageText
	}
	if err := chat.ValidateMessage(n.Content, n.Type, n.AttachmentURL); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: append message: begin: %w", err)
	}
	defer tx.Rollback()

	var msg chat.Message
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO chat_messages (session_id, sender_id, content, message_type, attachment_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, session_id, sender_id, content, message_type, attachment_url, is_read, created_at`,
		n.SessionID, n.SenderID, n.Content, n.Type, n.AttachmentURL,
	).StructScan(&msg)
	if err != nil {
		return nil, fmt.Errorf("store: insert message: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE chat_participants SET last_seen = now()
		WHERE session_id = $1 AND user_id = $2`,
		n.SessionID, n.SenderID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: message last seen: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: append message: commit: %w", err)
	}

	s.logger.Debug("message appended",
		zap.Int64("session_id", msg.SessionID),
		zap.Int64("message_id", msg.ID))
	return &msg, nil
}

// FetchMessages returns up to FetchPageSize messages with id > sinceID in
// ascending order, plus the new high-water mark for the caller's cursor.
// An empty page with lastID == sinceID means nothing new arrived.
func (s *Store) FetchMessages(ctx context.Context, sessionID, sinceID int64) ([]chat.Message, int64, error) {
	var messages []chat.Message
	err := s.db.SelectContext(ctx, &messages, `
		SELECT id, session_id, sender_id, content, message_type, attachment_url, is_read, created_at
		FROM chat_messages
		WHERE session_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3`, sessionID, sinceID, FetchPageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("store: fetch messages: %w", err)
	}

	lastID := sinceID
	if len(messages) > 0 {
		lastID = messages[len(messages)-1].ID
	}
	return messages, lastID, nil
}

// ListMessagesPage returns one page of history, newest page first but each
// page internally ascending for display. Used for initial sync; ongoing
// polling goes through FetchMessages.
func (s *Store) ListMessagesPage(ctx context.Context, sessionID int64, page, perPage int) ([]chat.Message, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > MaxHistoryPageSize {
		return nil, fmt.Errorf("%w: per_page must be 1..%d", chat.ErrValidation, MaxHistoryPageSize)
	}

	var messages []chat.Message
	err := s.db.SelectContext(ctx, &messages, `
		SELECT id, session_id, sender_id, content, message_type, attachment_url, is_read, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`, sessionID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("store: list messages: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkRead flips is_read for every unread message in the session not sent
// by the reader, and returns how many rows changed. Idempotent: a second
// call with no new inbound messages reports zero.
func (s *Store) MarkRead(ctx context.Context, sessionID, readerID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE chat_messages SET is_read = TRUE
		WHERE session_id = $1 AND sender_id <> $2 AND NOT is_read`,
		sessionID, readerID,
	)
	if err != nil {
		return 0, fmt.Errorf("store: mark read: %w", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store: mark read count: %w", err)
	}
	return updated, nil
}

// UnreadCount counts unread messages in the session not sent by the user.
func (s *Store) UnreadCount(ctx context.Context, sessionID, userID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM chat_messages
		WHERE session_id = $1 AND sender_id <> $2 AND NOT is_read`,
		sessionID, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("store: unread count: %w", err)
	}
	return count, nil
}
