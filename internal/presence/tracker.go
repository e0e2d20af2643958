// Package presence provides best-effort online/typing signaling backed by
// Redis. Status entries are stored as simple key-value pairs with TTL-based
// expiry:
//
//	Key:   presence:<session_id>:<user_id>
//	Value: <status>
//	TTL:   30s for typing, 300s otherwise
//
// The signal is advisory only, last write wins, and it is never used for
// authorization or correctness-critical decisions.
package presence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/workcity/chat-service/internal/chat"
)

const (
	// KeyPrefix is the Redis key prefix for presence entries.
	KeyPrefix = "presence:"

	// TypingTTL is how long a typing signal survives without refresh.
	TypingTTL = 30 * time.Second

	// StatusTTL is the lifetime of online/away signals.
	StatusTTL = 300 * time.Second

	// OnlineWindow is the last-seen threshold for the derived fallback:
	// a participant active within it counts as online even when no
	// explicit status was set.
	OnlineWindow = 300 * time.Second
)

// Status values.
const (
	StatusOnline  = "online"
	StatusTyping  = "typing"
	StatusAway    = "away"
	StatusOffline = "offline"
)

// settable is the set of statuses a client may write. Offline is derived,
// never stored.
var settable = map[string]time.Duration{
	StatusOnline: StatusTTL,
	StatusTyping: TypingTTL,
	StatusAway:   StatusTTL,
}

// Tracker manages ephemeral presence entries in Redis.
type Tracker struct {
	client *redis.Client
}

// NewTracker creates a tracker using the provided Redis client.
func NewTracker(client *redis.Client) *Tracker {
	return &Tracker{client: client}
}

func key(sessionID, userID int64) string {
	return fmt.Sprintf("%s%d:%d", KeyPrefix, sessionID, userID)
}

// SetStatus stores an ephemeral status with overwrite semantics.
func (t *Tracker) SetStatus(ctx context.Context, sessionID, userID int64, status string) error {
	ttl, ok := settable[status]
	if !ok {
		return fmt.Errorf("%w: unknown status %q", chat.ErrValidation, status)
	}
	if err := t.client.Set(ctx, key(sessionID, userID), status, ttl).Err(); err != nil {
		return fmt.Errorf("presence: set status: %w", err)
	}
	return nil
}

// GetStatus returns the stored status if unexpired, else classifies the
// participant by lastSeen: within OnlineWindow means online, otherwise
// offline.
func (t *Tracker) GetStatus(ctx context.Context, sessionID, userID int64, lastSeen time.Time) (string, error) {
	status, err := t.client.Get(ctx, key(sessionID, userID)).Result()
	if err == nil {
		return status, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("presence: get status: %w", err)
	}

	if time.Since(lastSeen) < OnlineWindow {
		return StatusOnline, nil
	}
	return StatusOffline, nil
}

// UserStatus is the per-participant rollup returned by SessionPresence.
type UserStatus struct {
	UserID   int64     `json:"user_id"`
	Role     string    `json:"role"`
	Status   string    `json:"status"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

// SessionPresence resolves the status of every participant.
func (t *Tracker) SessionPresence(ctx context.Context, sessionID int64, participants []chat.Participant) ([]UserStatus, error) {
	statuses := make([]UserStatus, 0, len(participants))
	for _, p := range participants {
		status, err := t.GetStatus(ctx, sessionID, p.UserID, p.LastSeen)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, UserStatus{
			UserID:   p.UserID,
			Role:     p.Role,
			Status:   status,
			IsOnline: status != StatusOffline,
			LastSeen: p.LastSeen,
		})
	}
	return statuses, nil
}
