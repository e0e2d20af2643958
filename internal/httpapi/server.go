// Package httpapi exposes the REST surface of the chat service: session
// and message CRUD, the cursor-based polling contract, presence, uploads,
// notifications, and the optional websocket event stream.
package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/workcity/chat-service/internal/assign"
	"github.com/workcity/chat-service/internal/messaging"
	"github.com/workcity/chat-service/internal/metrics"
	"github.com/workcity/chat-service/internal/notify"
	"github.com/workcity/chat-service/internal/presence"
	"github.com/workcity/chat-service/internal/store"
	"github.com/workcity/chat-service/internal/upload"
)

// API bundles the service dependencies behind the HTTP handlers. All
// components are constructed at process start and injected; there is no
// ambient global lookup.
type API struct {
	store    *store.Store
	engine   *assign.Engine
	tracker  *presence.Tracker
	queue    *notify.Queue
	nats     *messaging.Client
	uploads  upload.Store
	logger   *zap.Logger
	jwtKey   []byte
	staticFS string // upload dir served under /uploads; empty disables
}

// Options holds the API constructor arguments.
type Options struct {
	Store     *store.Store
	Engine    *assign.Engine
	Tracker   *presence.Tracker
	Queue     *notify.Queue
	NATS      *messaging.Client
	Uploads   upload.Store
	Logger    *zap.Logger
	JWTSecret string
	UploadDir string
}

// New creates the API.
func New(opts Options) *API {
	return &API{
		store:    opts.Store,
		engine:   opts.Engine,
		tracker:  opts.Tracker,
		queue:    opts.Queue,
		nats:     opts.NATS,
		uploads:  opts.Uploads,
		logger:   opts.Logger,
		jwtKey:   []byte(opts.JWTSecret),
		staticFS: opts.UploadDir,
	}
}

// Router builds the gin engine with all routes registered.
func (a *API) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), a.requestMetrics())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	if a.staticFS != "" {
		router.Static("/uploads", a.staticFS)
	}

	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(a.jwtKey, a.logger))
	{
		v1.GET("/sessions", a.listSessions)
		v1.POST("/sessions", a.createSession)
		v1.GET("/sessions/:id", a.getSession)
		v1.PATCH("/sessions/:id", a.updateSession)
		v1.POST("/sessions/:id/assign", a.assignAgent)
		v1.GET("/sessions/:id/messages", a.listMessages)
		v1.POST("/sessions/:id/messages", a.sendMessage)
		v1.POST("/sessions/:id/read", a.markRead)
		v1.GET("/sessions/:id/presence", a.sessionPresence)
		v1.GET("/sessions/:id/stream", a.streamSession)
		v1.POST("/status", a.updateStatus)
		v1.POST("/upload", a.uploadFile)
		v1.GET("/notifications", a.pendingNotifications)
	}

	return router
}

// requestMetrics records latency per method and status class.
func (a *API) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.RequestDuration.
			WithLabelValues(c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
