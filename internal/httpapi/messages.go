package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/workcity/chat-service/internal/chat"
	"github.com/workcity/chat-service/internal/metrics"
	"github.com/workcity/chat-service/internal/store"
)

// GET /api/v1/sessions/:id/messages
//
// Two modes share the route. With since_id the handler serves the polling
// contract: up to 50 messages after the cursor plus the new high-water
// mark, where an empty page is a normal outcome. With page/per_page it
// serves paginated history for initial sync.
func (a *API) listMessages(c *gin.Context) {
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

	if raw, exists := c.GetQuery("since_id"); exists {
		sinceID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || sinceID < 0 {
			c.JSON(http.StatusBadRequest, errorBody("validation_error", "invalid since_id"))
			return
		}

		messages, lastID, err := a.store.FetchMessages(ctx, sessionID, sinceID)
		if err != nil {
			a.respondError(c, err)
			return
		}

		outcome := "delivered"
		if len(messages) == 0 {
			outcome = "empty"
		}
		metrics.PollsTotal.WithLabelValues(outcome).Inc()

		a.touch(ctx, sessionID, id.UserID)
		c.JSON(http.StatusOK, gin.H{"messages": messages, "last_message_id": lastID})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	messages, err := a.store.ListMessagesPage(ctx, sessionID, page, perPage)
	if err != nil {
		a.respondError(c, err)
		return
	}

	a.touch(ctx, sessionID, id.UserID)
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type sendMessageRequest struct {
	Content       string `json:"content"`
	Type          string `json:"type"`
	AttachmentURL string `json:"attachment_url"`
}

// POST /api/v1/sessions/:id/messages
//
// Sends are synchronous: the persisted row, with server-assigned id and
// timestamp, is echoed back so the client renders it immediately instead
// of waiting for the next poll.
func (a *API) sendMessage(c *gin.Context) {
	id := identityFrom(c)
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("validation_error", "invalid request body"))
		return
	}

	ctx := c.Request.Context()
	if err := a.requireAccess(ctx, sessionID, id); err != nil {
		a.respondError(c, err)
		return
	}

	msg, err := a.store.AppendMessage(ctx, store.NewMessage{
		SessionID:     sessionID,
		SenderID:      id.UserID,
		Content:       req.Content,
		Type:          req.Type,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}
	metrics.MessagesTotal.WithLabelValues(msg.Type).Inc()

	a.publishEvent(chat.Event{
		Type:      chat.EventMessageSent,
		SessionID: sessionID,
		ActorID:   id.UserID,
		MessageID: msg.ID,
		Ts:        msg.CreatedAt.Unix(),
	})

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// POST /api/v1/sessions/:id/read
func (a *API) markRead(c *gin.Context) {
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

	updated, err := a.store.MarkRead(ctx, sessionID, id.UserID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	a.touch(ctx, sessionID, id.UserID)
	c.JSON(http.StatusOK, gin.H{"updated_count": updated})
}

// touch updates last_seen, logging rather than failing the request: a
// stale activity timestamp only degrades the presence signal.
func (a *API) touch(ctx context.Context, sessionID, userID int64) {
	if err := a.store.TouchLastSeen(ctx, sessionID, userID); err != nil {
		a.logger.Warn("touch last seen failed",
			zap.Int64("session_id", sessionID),
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
}
