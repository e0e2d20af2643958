// Package metrics provides Prometheus instrumentation for the chat
// service. It exposes counters for message and poll throughput, gauges for
// session counts, and histograms for request latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesTotal counts persisted messages, labeled by message type.
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Total number of messages persisted",
	}, []string{"type"}) // type = "text", "image", "file"

	// PollsTotal counts cursor-fetch requests, labeled by outcome.
	PollsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_polls_total",
		Help: "Total number of message poll requests",
	}, []string{"outcome"}) // outcome = "empty", "delivered"

	// RequestDuration records HTTP request latency in seconds.
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"method", "status"})

	// SessionsCreatedTotal counts session creations.
	SessionsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_sessions_created_total",
		Help: "Total number of chat sessions created",
	})

	// AssignmentsTotal counts assignment attempts, labeled by outcome.
	AssignmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_assignments_total",
		Help: "Total number of agent assignment attempts",
	}, []string{"outcome"}) // outcome = "assigned", "unassigned", "manual"

	// NotificationsTotal counts notification decisions, labeled by outcome.
	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_notifications_total",
		Help: "Total number of notification fan-out decisions",
	}, []string{"outcome"}) // outcome = "queued", "suppressed"

	// StreamConnections tracks open websocket stream subscribers.
	StreamConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_stream_connections",
		Help: "Current number of open event stream connections",
	})
)

func init() {
	prometheus.MustRegister(
		MessagesTotal,
		PollsTotal,
		RequestDuration,
		SessionsCreatedTotal,
		AssignmentsTotal,
		NotificationsTotal,
		StreamConnections,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
