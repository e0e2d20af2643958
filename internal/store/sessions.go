package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/workcity/chat-service/internal/chat"
)

// SessionFilter values accepted by ListSessionsForUser.
const (
	FilterAll     = "all"
	FilterActive  = "active"
	FilterPending = "pending"
	FilterMine    = "mine"
)

// NewSession carries the caller-supplied fields for session creation.
type NewSession struct {
	CreatorID int64
	Title     string
	ChatType  string
	ProductID *int64
	OrderID   *int64
}

// CreateSession creates a session with status=active, priority=normal and
// inserts the creator as a customer participant, in one transaction.
func (s *Store) CreateSession(ctx context.Context, n NewSession) (*chat.Session, error) {
	if err := chat.ValidateNewSession(n.Title, n.ChatType); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: create session: begin: %w", err)
	}
	defer tx.Rollback()

	var session chat.Session
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO chat_sessions (title, chat_type, status, priority, creator_id, product_id, order_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, title, chat_type, status, priority, creator_id, product_id, order_id, created_at`,
		n.Title, n.ChatType, chat.StatusActive, chat.PriorityNormal, n.CreatorID, n.ProductID, n.OrderID,
	).StructScan(&session)
	if err != nil {
		return nil, fmt.Errorf("store: insert session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chat_participants (session_id, user_id, role)
		VALUES ($1, $2, $3)`,
		session.ID, n.CreatorID, chat.RoleCustomer,
	)
	if err != nil {
		return nil, fmt.Errorf("store: insert creator participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: create session: commit: %w", err)
	}

	s.logger.Info("session created",
		zap.Int64("session_id", session.ID),
		zap.Int64("creator_id", n.CreatorID),
		zap.String("chat_type", session.ChatType))
	return &session, nil
}

// GetSession returns a session by id.
func (s *Store) GetSession(ctx context.Context, sessionID int64) (*chat.Session, error) {
	var session chat.Session
	err := s.db.GetContext(ctx, &session, `
		SELECT id, title, chat_type, status, priority, creator_id, product_id, order_id, created_at
		FROM chat_sessions WHERE id = $1`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %d", chat.ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get session: %w", err)
	}
	return &session, nil
}

// SessionUpdate carries the mutable session fields. Nil means unchanged.
type SessionUpdate struct {
	Title    *string
	Status   *string
	Priority *string
}

// UpdateSession applies a partial update. Status transitions are
// unconstrained: any valid status may be set from any other.
func (s *Store) UpdateSession(ctx context.Context, sessionID int64, u SessionUpdate) (*chat.Session, error) {
	if u.Status != nil {
		if err := chat.ValidateStatus(*u.Status); err != nil {
			return nil, err
		}
	}
	if u.Priority != nil {
		if err := chat.ValidatePriority(*u.Priority); err != nil {
			return nil, err
		}
	}
	if u.Title != nil && *u.Title == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", chat.ErrValidation)
	}

	var session chat.Session
	err := s.db.QueryRowxContext(ctx, `
		UPDATE chat_sessions
		SET title    = COALESCE($2, title),
		    status   = COALESCE($3, status),
		    priority = COALESCE($4, priority)
		WHERE id = $1
		RETURNING id, title, chat_type, status, priority, creator_id, product_id, order_id, created_at`,
		sessionID, u.Title, u.Status, u.Priority,
	).StructScan(&session)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %d", chat.ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: update session: %w", err)
	}
	return &session, nil
}

// ListSessionsForUser returns summaries for every session the user actively
// participates in, newest first. filter narrows by status (active, pending)
// or by the user's role (mine = sessions where the user is the agent).
func (s *Store) ListSessionsForUser(ctx context.Context, userID int64, filter string) ([]chat.SessionSummary, error) {
	query := `
		SELECT cs.id, cs.title, cs.chat_type, cs.status, cs.priority,
		       cs.creator_id, cs.product_id, cs.order_id, cs.created_at
		FROM chat_sessions cs
		JOIN chat_participants p ON p.session_id = cs.id
		WHERE p.user_id = $1 AND p.is_active`

	switch filter {
	case FilterAll, "":
	case FilterActive:
		query += ` AND cs.status = 'active'`
	case FilterPending:
		query += ` AND cs.status = 'pending'`
	case FilterMine:
		query += ` AND p.role = 'agent'`
	default:
		return nil, fmt.Errorf("%w: unknown filter %q", chat.ErrValidation, filter)
	}
	query += ` ORDER BY cs.created_at DESC`

	var sessions []chat.Session
	if err := s.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}

	summaries := make([]chat.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summary := chat.SessionSummary{Session: session}

		var last chat.Message
		err := s.db.GetContext(ctx, &last, `
			SELECT id, session_id, sender_id, content, message_type, attachment_url, is_read, created_at
			FROM chat_messages
			WHERE session_id = $1
			ORDER BY id DESC LIMIT 1`, session.ID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return nil, fmt.Errorf("store: last message: %w", err)
		default:
			summary.LastMessage = &chat.LastMessage{
				Content:   chat.TruncatePreview(last.Content),
				SenderID:  last.SenderID,
				CreatedAt: last.CreatedAt,
			}
		}

		unread, err := s.UnreadCount(ctx, session.ID, userID)
		if err != nil {
			return nil, err
		}
		summary.UnreadCount = unread

		summaries = append(summaries, summary)
	}
	return summaries, nil
}
