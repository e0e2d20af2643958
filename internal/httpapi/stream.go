package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/workcity/chat-service/internal/chat"
	"github.com/workcity/chat-service/internal/metrics"
)

// GET /api/v1/sessions/:id/stream
//
// Optional push upgrade over the polling contract: the connection is
// upgraded to a websocket and session events are forwarded as they are
// published. Cursor-based fetch stays available as the fallback and the
// initial-sync path; a client that never connects here loses nothing but
// latency.
func (a *API) streamSession(c *gin.Context) {
	id := identityFrom(c)
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := a.requireAccess(ctx, sessionID, id); err != nil {
		a.respondError(c, err)
		return
	}
	if a.nats == nil {
		c.JSON(http.StatusNotImplemented, errorBody("unavailable", "event streaming is not enabled"))
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(c.Request, c.Writer)
	if err != nil {
		a.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	subscriberID := uuid.New().String()
	metrics.StreamConnections.Inc()

	var writeMu sync.Mutex
	send := func(event chat.Event) {
		data, err := json.Marshal(event)
		if err != nil {
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := wsutil.WriteServerMessage(conn, ws.OpText, data); err != nil {
			a.logger.Debug("stream write failed",
				zap.Int64("session_id", sessionID), zap.Error(err))
			conn.Close()
		}
	}

	if err := a.nats.SubscribeSession(sessionID, subscriberID, send); err != nil {
		a.logger.Warn("stream subscribe failed",
			zap.Int64("session_id", sessionID), zap.Error(err))
		conn.Close()
		metrics.StreamConnections.Dec()
		return
	}

	a.logger.Debug("stream opened",
		zap.Int64("session_id", sessionID),
		zap.Int64("user_id", id.UserID))

	// Reader loop: the client sends nothing meaningful, but reading is
	// how we notice the peer went away and respond to control frames.
	go func() {
		defer func() {
			if err := a.nats.UnsubscribeSession(subscriberID); err != nil {
				a.logger.Debug("stream unsubscribe failed", zap.Error(err))
			}
			conn.Close()
			metrics.StreamConnections.Dec()
			a.logger.Debug("stream closed",
				zap.Int64("session_id", sessionID),
				zap.Int64("user_id", id.UserID))
		}()
		for {
			if _, _, err := wsutil.ReadClientData(conn); err != nil {
				return
			}
		}
	}()
}
