package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/workcity/chat-service/internal/chat"
	"github.com/workcity/chat-service/internal/metrics"
	"github.com/workcity/chat-service/internal/store"
)

// GET /api/v1/sessions?filter=all|active|pending|mine
func (a *API) listSessions(c *gin.Context) {
	id := identityFrom(c)

	filter := c.DefaultQuery("filter", store.FilterAll)
	summaries, err := a.store.ListSessionsForUser(c.Request.Context(), id.UserID, filter)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": summaries})
}

type createSessionRequest struct {
	Title        string `json:"title"`
	ChatType     string `json:"chat_type"`
	ProductID    *int64 `json:"product_id"`
	OrderID      *int64 `json:"order_id"`
	Participants []struct {
		UserID int64  `json:"user_id"`
		Role   string `json:"role"`
	} `json:"participants"`
}

// POST /api/v1/sessions
//
// Creates the session, adds any extra participants, then runs
// auto-assignment. A missing agent is a valid outcome: the session is
// created unassigned and agent_id is omitted from the response.
func (a *API) createSession(c *gin.Context) {
	id := identityFrom(c)

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("validation_error", "invalid request body"))
		return
	}

	ctx := c.Request.Context()
	session, err := a.store.CreateSession(ctx, store.NewSession{
		CreatorID: id.UserID,
		Title:     req.Title,
		ChatType:  req.ChatType,
		ProductID: req.ProductID,
		OrderID:   req.OrderID,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}
	metrics.SessionsCreatedTotal.Inc()

	for _, p := range req.Participants {
		if p.UserID == id.UserID {
			continue
		}
		if err := a.store.AddParticipant(ctx, session.ID, p.UserID, p.Role); err != nil {
			a.respondError(c, err)
			return
		}
	}

	resp := gin.H{"id": session.ID}
	assignment, err := a.engine.AutoAssign(ctx, session)
	switch {
	case err != nil:
		// The session exists; a failed assignment must not fail creation.
		a.logger.Warn("auto-assign failed", zap.Int64("session_id", session.ID), zap.Error(err))
		metrics.AssignmentsTotal.WithLabelValues("unassigned").Inc()
	case assignment == nil:
		metrics.AssignmentsTotal.WithLabelValues("unassigned").Inc()
	default:
		metrics.AssignmentsTotal.WithLabelValues("assigned").Inc()
		resp["agent_id"] = assignment.AgentID
	}

	c.JSON(http.StatusCreated, resp)
}

// GET /api/v1/sessions/:id
func (a *API) getSession(c *gin.Context) {
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

	session, err := a.store.GetSession(ctx, sessionID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	participants, err := a.store.Participants(ctx, sessionID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	// Opening the session counts as activity.
	if err := a.store.TouchLastSeen(ctx, sessionID, id.UserID); err != nil {
		a.logger.Warn("touch last seen failed", zap.Int64("session_id", sessionID), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"session": session, "participants": participants})
}

type updateSessionRequest struct {
	Title    *string `json:"title"`
	Status   *string `json:"status"`
	Priority *string `json:"priority"`
}

// PATCH /api/v1/sessions/:id
func (a *API) updateSession(c *gin.Context) {
	id := identityFrom(c)
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("validation_error", "invalid request body"))
		return
	}

	ctx := c.Request.Context()
	if err := a.requireAccess(ctx, sessionID, id); err != nil {
		a.respondError(c, err)
		return
	}

	session, err := a.store.UpdateSession(ctx, sessionID, store.SessionUpdate{
		Title:    req.Title,
		Status:   req.Status,
		Priority: req.Priority,
	})
	if err != nil {
		a.respondError(c, err)
		return
	}

	if req.Status != nil && *req.Status == chat.StatusClosed {
		a.publishEvent(chat.Event{
			Type:      chat.EventSessionClosed,
			SessionID: sessionID,
			ActorID:   id.UserID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

type assignRequest struct {
	AgentID int64 `json:"agent_id"`
}

// POST /api/v1/sessions/:id/assign
//
// Manual assignment: operator-only, bypasses the load check.
func (a *API) assignAgent(c *gin.Context) {
	id := identityFrom(c)
	if !id.Privileged {
		c.JSON(http.StatusForbidden, errorBody("forbidden", "manual assignment requires manage capability"))
		return
	}
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}

	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AgentID < 1 {
		c.JSON(http.StatusBadRequest, errorBody("validation_error", "agent_id is required"))
		return
	}

	ctx := c.Request.Context()
	if _, err := a.store.GetSession(ctx, sessionID); err != nil {
		a.respondError(c, err)
		return
	}

	if err := a.engine.ManualAssign(ctx, sessionID, req.AgentID); err != nil {
		a.respondError(c, err)
		return
	}
	metrics.AssignmentsTotal.WithLabelValues("manual").Inc()

	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "agent_id": req.AgentID})
}

func (a *API) publishEvent(event chat.Event) {
	if a.nats == nil {
		return
	}
	if event.Ts == 0 {
		event.Ts = time.Now().Unix()
	}
	if err := a.nats.PublishEvent(event); err != nil {
		a.logger.Warn("publish event failed",
			zap.String("type", event.Type),
			zap.Int64("session_id", event.SessionID),
			zap.Error(err))
	}
}
