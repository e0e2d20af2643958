package assign

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/workcity/chat-service/internal/chat"
)

// AgentProfile describes an account eligible for auto-assignment: which
// chat types it covers, how many concurrent sessions it takes, and whether
// it is currently accepting new ones.
type AgentProfile struct {
	UserID          int64          `db:"user_id"`
	DisplayName     string         `db:"display_name"`
	Specializations pq.StringArray `db:"specializations"`
	MaxConcurrent   int            `db:"max_concurrent"`
	Available       bool           `db:"available"`
}

// Covers reports whether the profile's specializations include the chat
// type or the wildcard tag.
func (p *AgentProfile) Covers(chatType string) bool {
	for _, tag := range p.Specializations {
		if tag == chatType || tag == chat.SpecializationAll {
			return true
		}
	}
	return false
}

// SaveProfile upserts an agent profile. A zero MaxConcurrent takes the
// engine's configured default.
func (e *Engine) SaveProfile(ctx context.Context, p AgentProfile) error {
	if p.MaxConcurrent == 0 {
		p.MaxConcurrent = e.defaultCap
	}
	if p.MaxConcurrent < 1 {
		return fmt.Errorf("%w: max_concurrent must be at least 1", chat.ErrValidation)
	}
	_, err := e.db.ExecContext(ctx, `
		INSERT INTO agent_profiles (user_id, display_name, specializations, max_concurrent, available)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name    = EXCLUDED.display_name,
			specializations = EXCLUDED.specializations,
			max_concurrent  = EXCLUDED.max_concurrent,
			available       = EXCLUDED.available`,
		p.UserID, p.DisplayName, p.Specializations, p.MaxConcurrent, p.Available,
	)
	if err != nil {
		return fmt.Errorf("assign: save profile: %w", err)
	}
	return nil
}

// GetProfile returns an agent profile by user id.
func (e *Engine) GetProfile(ctx context.Context, userID int64) (*AgentProfile, error) {
	var p AgentProfile
	err := e.db.GetContext(ctx, &p, `
		SELECT user_id, display_name, specializations, max_concurrent, available
		FROM agent_profiles WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: agent profile %d", chat.ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("assign: get profile: %w", err)
	}
	return &p, nil
}

// CurrentLoad counts the agent's sessions that are active or pending where
// the agent is an active participant with the agent role.
func (e *Engine) CurrentLoad(ctx context.Context, agentID int64) (int, error) {
	return currentLoad(ctx, e.db, agentID)
}

type queryer interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func currentLoad(ctx context.Context, q queryer, agentID int64) (int, error) {
	var load int
	err := q.GetContext(ctx, &load, `
		SELECT COUNT(*)
		FROM chat_participants p
		JOIN chat_sessions cs ON cs.id = p.session_id
		WHERE p.user_id = $1 AND p.role = 'agent' AND p.is_active
		  AND cs.status IN ('active', 'pending')`, agentID)
	if err != nil {
		return 0, fmt.Errorf("assign: current load: %w", err)
	}
	return load, nil
}

// lockedCandidates selects every available profile covering the chat type,
// locking the rows so concurrent assignments for the same agents serialize
// on the load check.
func lockedCandidates(ctx context.Context, tx *sqlx.Tx, chatType string) ([]AgentProfile, error) {
	var candidates []AgentProfile
	err := tx.SelectContext(ctx, &candidates, `
		SELECT user_id, display_name, specializations, max_concurrent, available
		FROM agent_profiles
		WHERE available AND ($1 = ANY(specializations) OR $2 = ANY(specializations))
		ORDER BY user_id
		FOR UPDATE`, chatType, chat.SpecializationAll)
	if err != nil {
		return nil, fmt.Errorf("assign: candidates: %w", err)
	}
	return candidates, nil
}
