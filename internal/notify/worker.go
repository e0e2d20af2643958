package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/workcity/chat-service/internal/chat"
	"github.com/workcity/chat-service/internal/messaging"
	"github.com/workcity/chat-service/internal/metrics"
	"github.com/workcity/chat-service/internal/presence"
	"github.com/workcity/chat-service/internal/store"
)

// handleTimeout bounds the store and redis work done per event.
const handleTimeout = 5 * time.Second

// Worker consumes session events and queues notifications for recipients
// who are not currently present in the session.
type Worker struct {
	store   *store.Store
	tracker *presence.Tracker
	queue   *Queue
	nats    *messaging.Client
	logger  *zap.Logger
}

// NewWorker wires a notification worker.
func NewWorker(st *store.Store, tracker *presence.Tracker, queue *Queue, nats *messaging.Client, logger *zap.Logger) *Worker {
	return &Worker{store: st, tracker: tracker, queue: queue, nats: nats, logger: logger}
}

// Start subscribes to all session events. Delivery is best-effort: a
// failed enqueue is logged and dropped, the poll loop remains the source
// of truth.
func (w *Worker) Start() error {
	return w.nats.SubscribeAllSessions(w.handle)
}

func (w *Worker) handle(event chat.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	participants, err := w.store.Participants(ctx, event.SessionID)
	if err != nil {
		w.logger.Warn("participants lookup failed",
			zap.Int64("session_id", event.SessionID), zap.Error(err))
		return
	}

	for _, p := range participants {
		if p.UserID == event.ActorID {
			continue // never notify the actor about their own action
		}

		status, err := w.tracker.GetStatus(ctx, event.SessionID, p.UserID, p.LastSeen)
		if err != nil {
			w.logger.Warn("presence lookup failed",
				zap.Int64("user_id", p.UserID), zap.Error(err))
			status = presence.StatusOffline
		}
		if status != presence.StatusOffline {
			metrics.NotificationsTotal.WithLabelValues("suppressed").Inc()
			continue
		}

		n := Notification{
			Type:      event.Type,
			SessionID: event.SessionID,
			ActorID:   event.ActorID,
			MessageID: event.MessageID,
			AgentID:   event.AgentID,
			Ts:        event.Ts,
		}
		if err := w.queue.Enqueue(ctx, p.UserID, n); err != nil {
			w.logger.Warn("notification enqueue failed",
				zap.Int64("user_id", p.UserID), zap.Error(err))
			continue
		}
		metrics.NotificationsTotal.WithLabelValues("queued").Inc()
	}
}
