// Package notify fans session events out to notifications. Recipients who
// are present in the session get nothing (their poll loop shows the change
// within an interval); everyone else gets an entry in a per-user pending
// queue that clients drain on their next visit.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// QueuePrefix is the Redis key prefix for per-user pending queues.
	QueuePrefix = "notify:"

	// MaxPending caps the queue per user; older entries are dropped.
	MaxPending = 50

	// QueueTTL expires queues for users who never come back.
	QueueTTL = 7 * 24 * time.Hour
)

// Notification is one pending entry delivered to a client.
type Notification struct {
	Type      string `json:"type"`
	SessionID int64  `json:"session_id"`
	ActorID   int64  `json:"actor_id"`
	MessageID int64  `json:"message_id,omitempty"`
	AgentID   int64  `json:"agent_id,omitempty"`
	Ts        int64  `json:"ts"`
}

// Queue stores pending notifications per user in Redis lists.
type Queue struct {
	client *redis.Client
}

// NewQueue creates a queue using the provided Redis client.
func NewQueue(client *redis.Client) *Queue {
	return &Queue{client: client}
}

func queueKey(userID int64) string {
	return QueuePrefix + strconv.FormatInt(userID, 10)
}

// Enqueue appends a notification to the user's pending queue, trimming to
// MaxPending and refreshing the queue TTL.
func (q *Queue) Enqueue(ctx context.Context, userID int64, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: marshal: %w", err)
	}

	key := queueKey(userID)
	pipe := q.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, MaxPending-1)
	pipe.Expire(ctx, key, QueueTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("notify: enqueue: %w", err)
	}
	return nil
}

// Drain returns and clears the user's pending notifications, newest first.
func (q *Queue) Drain(ctx context.Context, userID int64) ([]Notification, error) {
	key := queueKey(userID)

	pipe := q.client.Pipeline()
	items := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("notify: drain: %w", err)
	}

	raw, err := items.Result()
	if err != nil {
		return nil, fmt.Errorf("notify: drain result: %w", err)
	}

	notifications := make([]Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue // skip corrupt entries rather than fail the drain
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// PendingCount returns the queue length without draining it.
func (q *Queue) PendingCount(ctx context.Context, userID int64) (int64, error) {
	count, err := q.client.LLen(ctx, queueKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("notify: pending count: %w", err)
	}
	return count, nil
}
