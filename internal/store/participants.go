package store

import (
	"context"
	"fmt"

	"github.com/workcity/chat-service/internal/chat"
)

// AddParticipant inserts a membership row, re-activating a previously
// removed participant instead of duplicating the (session, user) pair.
func (s *Store) AddParticipant(ctx context.Context, sessionID, userID int64, role string) error {
	if role != chat.RoleCustomer && role != chat.RoleAgent {
		return fmt.Errorf("%w: unknown role %q", chat.ErrValidation, role)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_participants (session_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, user_id)
		DO UPDATE SET role = EXCLUDED.role, is_active = TRUE, last_seen = now()`,
		sessionID, userID, role,
	)
	if err != nil {
		return fmt.Errorf("store: add participant: %w", err)
	}
	return nil
}

// Deactivate soft-removes a participant. Rows are never deleted; every
// visibility query gates on is_active.
func (s *Store) Deactivate(ctx context.Context, sessionID, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chat_participants SET is_active = FALSE
		WHERE session_id = $1 AND user_id = $2`,
		sessionID, userID,
	)
	if err != nil {
		return fmt.Errorf("store: deactivate participant: %w", err)
	}
	return nil
}

// IsActiveParticipant reports whether the user is an active member of the
// session. This is the sole input to the access-control predicate.
func (s *Store) IsActiveParticipant(ctx context.Context, sessionID, userID int64) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM chat_participants
		WHERE session_id = $1 AND user_id = $2 AND is_active`,
		sessionID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("store: participant check: %w", err)
	}
	return count > 0, nil
}

// Participants returns the active members of a session.
func (s *Store) Participants(ctx context.Context, sessionID int64) ([]chat.Participant, error) {
	var participants []chat.Participant
	err := s.db.SelectContext(ctx, &participants, `
		SELECT session_id, user_id, role, joined_at, last_seen, is_active
		FROM chat_participants
		WHERE session_id = $1 AND is_active
		ORDER BY joined_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("store: participants: %w", err)
	}
	return participants, nil
}

// TouchLastSeen records activity for a participant. Called on every read
// and write action the user performs in the session.
func (s *Store) TouchLastSeen(ctx context.Context, sessionID, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chat_participants SET last_seen = now()
		WHERE session_id = $1 AND user_id = $2`,
		sessionID, userID,
	)
	if err != nil {
		return fmt.Errorf("store: touch last seen: %w", err)
	}
	return nil
}
