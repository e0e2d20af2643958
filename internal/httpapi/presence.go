package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type updateStatusRequest struct {
	SessionID int64  `json:"session_id"`
	Status    string `json:"status"`
}

// POST /api/v1/status
//
// Stores an ephemeral presence status. Advisory only; concurrent writers
// race and the last write wins.
func (a *API) updateStatus(c *gin.Context) {
	id := identityFrom(c)

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID < 1 {
		c.JSON(http.StatusBadRequest, errorBody("validation_error", "session_id and status are required"))
		return
	}

	ctx := c.Request.Context()
	if err := a.requireAccess(ctx, req.SessionID, id); err != nil {
		a.respondError(c, err)
		return
	}

	if err := a.tracker.SetStatus(ctx, req.SessionID, id.UserID, req.Status); err != nil {
		a.respondError(c, err)
		return
	}
	a.touch(ctx, req.SessionID, id.UserID)

	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

// GET /api/v1/sessions/:id/presence
func (a *API) sessionPresence(c *gin.Context) {
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

	participants, err := a.store.Participants(ctx, sessionID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	statuses, err := a.tracker.SessionPresence(ctx, sessionID, participants)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": statuses})
}

// GET /api/v1/notifications
//
// Drains the caller's pending notification queue.
func (a *API) pendingNotifications(c *gin.Context) {
	id := identityFrom(c)

	notifications, err := a.queue.Drain(c.Request.Context(), id.UserID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}
