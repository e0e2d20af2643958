// Package chat defines the domain model for the support chat service:
// sessions, participants, messages, and the enumerations and validation
// rules shared by the store, the assignment engine, and the HTTP surface.
package chat

import "time"

// Chat type constants. A session's type drives agent matching.
const (
	TypeGeneral  = "general"
	TypeProduct  = "product"
	TypeOrder    = "order"
	TypeDesign   = "design"
	TypeMerchant = "merchant"

	// SpecializationAll is the wildcard specialization tag that makes an
	// agent eligible for every chat type.
	SpecializationAll = "all"
)

// Session status constants. Transitions are unconstrained: any authorized
// actor may set any status.
const (
	StatusActive   = "active"
	StatusPending  = "pending"
	StatusResolved = "resolved"
	StatusClosed   = "closed"
)

// Session priority constants.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Participant role constants.
const (
	RoleCustomer = "customer"
	RoleAgent    = "agent"
)

// Message type constants.
const (
	MessageText  = "text"
	MessageImage = "image"
	MessageFile  = "file"
)

// ValidChatTypes is the set of allowed chat_type values.
var ValidChatTypes = map[string]bool{
	TypeGeneral:  true,
	TypeProduct:  true,
	TypeOrder:    true,
	TypeDesign:   true,
	TypeMerchant: true,
}

// ValidStatuses is the set of allowed session status values.
var ValidStatuses = map[string]bool{
	StatusActive:   true,
	StatusPending:  true,
	StatusResolved: true,
	StatusClosed:   true,
}

// ValidPriorities is the set of allowed session priority values.
var ValidPriorities = map[string]bool{
	PriorityLow:    true,
	PriorityNormal: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

// ValidMessageTypes is the set of allowed message type values.
var ValidMessageTypes = map[string]bool{
	MessageText:  true,
	MessageImage: true,
	MessageFile:  true,
}

// Session is a bounded conversation between a customer and zero or more
// agents. Sessions are never hard-deleted; closing is a status change.
type Session struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	ChatType  string    `db:"chat_type" json:"chat_type"`
	Status    string    `db:"status" json:"status"`
	Priority  string    `db:"priority" json:"priority"`
	CreatorID int64     `db:"creator_id" json:"creator_id"`
	ProductID *int64    `db:"product_id" json:"product_id,omitempty"`
	OrderID   *int64    `db:"order_id" json:"order_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Participant is a user's membership record in a session. The is_active
// flag soft-removes a participant; every query gates on it.
type Participant struct {
	SessionID int64     `db:"session_id" json:"session_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Role      string    `db:"role" json:"role"`
	JoinedAt  time.Time `db:"joined_at" json:"joined_at"`
	LastSeen  time.Time `db:"last_seen" json:"last_seen"`
	IsActive  bool      `db:"is_active" json:"is_active"`
}

// Message is one entry in a session's append-only log. IDs are assigned by
// the store and strictly increase within a session, which is what makes
// them usable as polling cursors.
type Message struct {
	ID            int64     `db:"id" json:"id"`
	SessionID     int64     `db:"session_id" json:"session_id"`
	SenderID      int64     `db:"sender_id" json:"sender_id"`
	Content       string    `db:"content" json:"content"`
	Type          string    `db:"message_type" json:"type"`
	AttachmentURL string    `db:"attachment_url" json:"attachment_url,omitempty"`
	IsRead        bool      `db:"is_read" json:"is_read"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// LastMessage is the preview embedded in a session summary.
type LastMessage struct {
	Content   string    `json:"content"`
	SenderID  int64     `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionSummary is the session-list view: the session plus a truncated
// last-message preview and the caller's unread count.
type SessionSummary struct {
	Session
	LastMessage *LastMessage `json:"last_message,omitempty"`
	UnreadCount int          `json:"unread_count"`
}

// PreviewLength is the rune limit for last-message previews.
const PreviewLength = 50

// TruncatePreview shortens content to PreviewLength runes, appending an
// ellipsis when anything was cut.
func TruncatePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= PreviewLength {
		return content
	}
	return string(runes[:PreviewLength]) + "..."
}
