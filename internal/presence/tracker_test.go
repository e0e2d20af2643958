package presence

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/workcity/chat-service/internal/chat"
)

func newTestTracker(t *testing.T) (*Tracker, *redis.Client, context.Context) {
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

	return NewTracker(client), client, ctx
}

func TestSetAndGetStatus(t *testing.T) {
	tracker, client, ctx := newTestTracker(t)

	if err := tracker.SetStatus(ctx, 1, 10, StatusTyping); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	status, err := tracker.GetStatus(ctx, 1, 10, time.Time{})
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status != StatusTyping {
		t.Errorf("status = %q, want typing", status)
	}

	ttl, err := client.TTL(ctx, key(1, 10)).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > TypingTTL {
		t.Errorf("typing TTL = %v, want (0, %v]", ttl, TypingTTL)
	}

	// Overwrite with a longer-lived status.
	if err := tracker.SetStatus(ctx, 1, 10, StatusAway); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	status, err = tracker.GetStatus(ctx, 1, 10, time.Time{})
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status != StatusAway {
		t.Errorf("status = %q, want away after overwrite", status)
	}
	ttl, err = client.TTL(ctx, key(1, 10)).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= TypingTTL || ttl > StatusTTL {
		t.Errorf("away TTL = %v, want (%v, %v]", ttl, TypingTTL, StatusTTL)
	}
}

func TestSetStatusRejectsOfflineAndUnknown(t *testing.T) {
	tracker, _, ctx := newTestTracker(t)

	for _, status := range []string{StatusOffline, "busy", ""} {
		if err := tracker.SetStatus(ctx, 1, 10, status); !errors.Is(err, chat.ErrValidation) {
			t.Errorf("SetStatus(%q): got %v, want ErrValidation", status, err)
		}
	}
}

func TestGetStatusLastSeenFallback(t *testing.T) {
	tracker, _, ctx := newTestTracker(t)

	// No stored entry; recent activity derives online.
	status, err := tracker.GetStatus(ctx, 2, 20, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status != StatusOnline {
		t.Errorf("recent last seen: status = %q, want online", status)
	}

	// Stale activity derives offline.
	status, err = tracker.GetStatus(ctx, 2, 20, time.Now().Add(-OnlineWindow-time.Minute))
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status != StatusOffline {
		t.Errorf("stale last seen: status = %q, want offline", status)
	}
}

func TestSessionPresence(t *testing.T) {
	tracker, _, ctx := newTestTracker(t)

	if err := tracker.SetStatus(ctx, 3, 30, StatusTyping); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	participants := []chat.Participant{
		{SessionID: 3, UserID: 30, Role: chat.RoleCustomer, LastSeen: time.Now()},
		{SessionID: 3, UserID: 31, Role: chat.RoleAgent, LastSeen: time.Now().Add(-OnlineWindow - time.Hour)},
	}

	statuses, err := tracker.SessionPresence(ctx, 3, participants)
	if err != nil {
		t.Fatalf("SessionPresence: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("got %d statuses, want 2", len(statuses))
	}
	if statuses[0].Status != StatusTyping || !statuses[0].IsOnline {
		t.Errorf("customer status = %+v, want typing and online", statuses[0])
	}
	if statuses[1].Status != StatusOffline || statuses[1].IsOnline {
		t.Errorf("agent status = %+v, want offline", statuses[1])
	}
}
