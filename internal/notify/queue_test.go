package notify

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

func newTestQueue(t *testing.T) (*Queue, *redis.Client, context.Context) {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("skipping: redis not available: %v", err)
	}
	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(ctx)
		client.Close()
	})

	return NewQueue(client), client, ctx
}

func TestEnqueueAndDrain(t *testing.T) {
	q, _, ctx := newTestQueue(t)

	first := Notification{Type: "message_sent", SessionID: 1, ActorID: 10, MessageID: 100, Ts: 1000}
	second := Notification{Type: "agent_assigned", SessionID: 1, ActorID: 20, AgentID: 20, Ts: 2000}

	if err := q.Enqueue(ctx, 5, first); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, 5, second); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	count, err := q.PendingCount(ctx, 5)
	if err != nil {
		t.Fatalf("PendingCount: %v", err)
	}
	if count != 2 {
		t.Errorf("pending = %d, want 2", count)
	}

	got, err := q.Drain(ctx, 5)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("drained %d, want 2", len(got))
	}
	// Newest first.
	if got[0] != second || got[1] != first {
		t.Errorf("drained order = %+v", got)
	}

	// Draining clears the queue.
	count, err = q.PendingCount(ctx, 5)
	if err != nil {
		t.Fatalf("PendingCount: %v", err)
	}
	if count != 0 {
		t.Errorf("pending after drain = %d, want 0", count)
	}

	got, err = q.Drain(ctx, 5)
	if err != nil {
		t.Fatalf("second Drain: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("second drain returned %d entries", len(got))
	}
}

func TestEnqueueTrimsToMaxPending(t *testing.T) {
	q, _, ctx := newTestQueue(t)

	for i := 0; i < MaxPending+10; i++ {
		n := Notification{Type: "message_sent", SessionID: 1, ActorID: 10, MessageID: int64(i + 1), Ts: int64(i)}
		if err := q.Enqueue(ctx, 7, n); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	got, err := q.Drain(ctx, 7)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(got) != MaxPending {
		t.Fatalf("drained %d, want %d", len(got), MaxPending)
	}
	// The oldest entries were dropped; the newest survives at the head.
	if got[0].MessageID != int64(MaxPending+10) {
		t.Errorf("head message id = %d, want %d", got[0].MessageID, MaxPending+10)
	}
}

func TestDrainSkipsCorruptEntries(t *testing.T) {
	q, client, ctx := newTestQueue(t)

	if err := q.Enqueue(ctx, 9, Notification{Type: "message_sent", SessionID: 2, ActorID: 1, Ts: 1}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := client.LPush(ctx, QueuePrefix+"9", "not json").Err(); err != nil {
		t.Fatalf("LPush: %v", err)
	}

	got, err := q.Drain(ctx, 9)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(got) != 1 || got[0].SessionID != 2 {
		t.Errorf("drained = %+v, want only the valid entry", got)
	}
}

func TestQueuesAreIsolatedPerUser(t *testing.T) {
	q, _, ctx := newTestQueue(t)

	if err := q.Enqueue(ctx, 1, Notification{Type: "message_sent", SessionID: 1, Ts: 1}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	got, err := q.Drain(ctx, 2)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("user 2 drained user 1's notifications: %+v", got)
	}
}
