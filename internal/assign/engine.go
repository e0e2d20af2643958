// Package assign matches newly created or unassigned sessions to the least
// busy available agent whose specializations cover the session's chat type.
package assign

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/workcity/chat-service/internal/chat"
)

// EventPublisher publishes session events. Satisfied by messaging.Client.
type EventPublisher interface {
	PublishEvent(event chat.Event) error
}

// Engine picks agents for sessions. The load check and the participant
// insert run inside one transaction with the candidate profile rows locked,
// so two concurrent assignments cannot both push an agent past its cap.
type Engine struct {
	db         *sqlx.DB
	publisher  EventPublisher
	defaultCap int
	logger     *zap.Logger
}

// NewEngine creates an assignment engine. publisher may be nil in tests.
// defaultCap is the concurrent-session cap applied to profiles saved
// without one.
func NewEngine(db *sqlx.DB, publisher EventPublisher, defaultCap int, logger *zap.Logger) *Engine {
	if defaultCap < 1 {
		defaultCap = 5
	}
	return &Engine{db: db, publisher: publisher, defaultCap: defaultCap, logger: logger}
}

// Assignment reports the outcome of a successful assignment.
type Assignment struct {
	SessionID      int64
	AgentID        int64
	WelcomeMessage chat.Message
}

// AutoAssign attaches the best available agent to the session and appends
// the agent's welcome message. A nil Assignment with nil error means no
// eligible agent exists; the session stays unassigned and no retry is
// scheduled, a human operator assigns it later.
func (e *Engine) AutoAssign(ctx context.Context, session *chat.Session) (*Assignment, error) {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("assign: begin: %w", err)
	}
	defer tx.Rollback()

	candidates, err := lockedCandidates(ctx, tx, session.ChatType)
	if err != nil {
		return nil, err
	}

	// Least-busy-first: lowest load/cap ratio wins, agents at or over cap
	// are out. Candidates arrive ordered by user id, so equal ratios
	// resolve to the lowest id.
	var (
		best      *AgentProfile
		bestLoad  int
		bestRatio float64
	)
	for i := range candidates {
		c := &candidates[i]
		load, err := currentLoad(ctx, tx, c.UserID)
		if err != nil {
			return nil, err
		}
		if load >= c.MaxConcurrent {
			continue
		}
		ratio := float64(load) / float64(c.MaxConcurrent)
		if best == nil || ratio < bestRatio {
			best, bestLoad, bestRatio = c, load, ratio
		}
	}

	if best == nil {
		e.logger.Info("no eligible agent",
			zap.Int64("session_id", session.ID),
			zap.String("chat_type", session.ChatType),
			zap.Int("candidates", len(candidates)))
		return nil, nil
	}

	if err := insertAgent(ctx, tx, session.ID, best.UserID); err != nil {
		return nil, err
	}

	welcome, err := insertWelcome(ctx, tx, session.ID, best)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("assign: commit: %w", err)
	}

	e.logger.Info("agent assigned",
		zap.Int64("session_id", session.ID),
		zap.Int64("agent_id", best.UserID),
		zap.Int("load", bestLoad+1),
		zap.Int("cap", best.MaxConcurrent))

	e.publish(chat.Event{
		Type:      chat.EventAgentAssigned,
		SessionID: session.ID,
		ActorID:   best.UserID,
		AgentID:   best.UserID,
		MessageID: welcome.ID,
		Ts:        time.Now().Unix(),
	})

	return &Assignment{SessionID: session.ID, AgentID: best.UserID, WelcomeMessage: *welcome}, nil
}

// ManualAssign attaches any user as agent, bypassing the load check
// entirely. Operator-only; callers enforce the privilege.
func (e *Engine) ManualAssign(ctx context.Context, sessionID, agentID int64) error {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("assign: manual begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertAgent(ctx, tx, sessionID, agentID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("assign: manual commit: %w", err)
	}

	e.logger.Info("agent assigned manually",
		zap.Int64("session_id", sessionID),
		zap.Int64("agent_id", agentID))

	e.publish(chat.Event{
		Type:      chat.EventAgentAssigned,
		SessionID: sessionID,
		ActorID:   agentID,
		AgentID:   agentID,
		Ts:        time.Now().Unix(),
	})
	return nil
}

func (e *Engine) publish(event chat.Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishEvent(event); err != nil {
		e.logger.Warn("publish assignment event failed",
			zap.Int64("session_id", event.SessionID), zap.Error(err))
	}
}

func insertAgent(ctx context.Context, tx *sqlx.Tx, sessionID, agentID int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO chat_participants (session_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, user_id)
		DO UPDATE SET role = EXCLUDED.role, is_active = TRUE, last_seen = now()`,
		sessionID, agentID, chat.RoleAgent,
	)
	if err != nil {
		return fmt.Errorf("assign: insert agent participant: %w", err)
	}
	return nil
}

func insertWelcome(ctx context.Context, tx *sqlx.Tx, sessionID int64, agent *AgentProfile) (*chat.Message, error) {
	content := "Hello! I'll be assisting you today. How can I help you?"
	if agent.DisplayName != "" {
		content = fmt.Sprintf("Hello! I'm %s and I'll be assisting you today. How can I help you?", agent.DisplayName)
	}

	var msg chat.Message
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO chat_messages (session_id, sender_id, content, message_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, session_id, sender_id, content, message_type, attachment_url, is_read, created_at`,
		sessionID, agent.UserID, content, chat.MessageText,
	).StructScan(&msg)
	if err != nil {
		return nil, fmt.Errorf("assign: welcome message: %w", err)
	}
	return &msg, nil
}
