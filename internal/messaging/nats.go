// Package messaging provides a NATS client wrapper for pub/sub messaging
// between the API server and the notification worker. It handles connection
// lifecycle, subject-based subscriptions, and convenience methods for
// session event channels.
package messaging

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/workcity/chat-service/internal/chat"
)

// NATS subject patterns. Session events fan out on session.<session_id>;
// SubjectSessionAll is the wildcard the notifier consumes.
const (
	SubjectSessionPrefix = "session."
	SubjectSessionAll    = "session.>"
)

// Client wraps the NATS connection with helper methods for pub/sub.
type Client struct {
	conn   *nats.Conn
	logger *zap.Logger
	mu     sync.Mutex
	subs   map[string]*nats.Subscription
}

// Config holds NATS connection settings.
type Config struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           "nats://localhost:4222",
		Name:          "chat-service",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

// NewClient connects to NATS with the given config and returns a ready
// client. It returns an error if the initial connection fails.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("nats connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	logger.Info("nats connected", zap.String("url", nc.ConnectedUrl()))

	return &Client{
		conn:   nc,
		logger: logger,
		subs:   make(map[string]*nats.Subscription),
	}, nil
}

// PublishEvent publishes a session event to session.<session_id>.
func (c *Client) PublishEvent(event chat.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("nats marshal event: %w", err)
	}
	subject := SubjectSessionPrefix + strconv.FormatInt(event.SessionID, 10)
	return c.conn.Publish(subject, data)
}

// SubscribeSession registers handler for events of one session. The
// subscription is keyed by subscriberID so multiple stream clients watching
// the same session do not overwrite each other.
func (c *Client) SubscribeSession(sessionID int64, subscriberID string, handler func(event chat.Event)) error {
	subject := SubjectSessionPrefix + strconv.FormatInt(sessionID, 10)
	key := "sessionsub:" + subscriberID
	return c.subscribe(subject, key, handler)
}

// UnsubscribeSession drops a stream client's session subscription.
func (c *Client) UnsubscribeSession(subscriberID string) error {
	return c.unsubscribe("sessionsub:" + subscriberID)
}

// SubscribeAllSessions registers handler for every session event. Used by
// the notification worker.
func (c *Client) SubscribeAllSessions(handler func(event chat.Event)) error {
	return c.subscribe(SubjectSessionAll, SubjectSessionAll, handler)
}

func (c *Client) subscribe(subject, key string, handler func(event chat.Event)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		var event chat.Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			c.logger.Warn("invalid session event", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		handler(event)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subs[key] = sub
	c.mu.Unlock()
	return nil
}

// Close drains all active subscriptions and closes the NATS connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			c.logger.Warn("nats drain failed", zap.String("subscription", key), zap.Error(err))
		}
	}
	c.subs = make(map[string]*nats.Subscription)

	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats connection drain failed", zap.Error(err))
	}

	c.logger.Info("nats client closed")
}

func (c *Client) unsubscribe(key string) error {
	c.mu.Lock()
	sub, ok := c.subs[key]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("nats: no subscription %s", key)
	}
	delete(c.subs, key)
	c.mu.Unlock()

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("nats unsubscribe %s: %w", key, err)
	}
	return nil
}
