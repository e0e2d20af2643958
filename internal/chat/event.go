package chat

// Event type constants carried on NATS session.<session_id> subjects and
// forwarded to stream subscribers.
const (
	EventMessageSent   = "message_sent"
	EventAgentAssigned = "agent_assigned"
	EventSessionClosed = "session_closed"
)

// Event is the payload published for every session-scoped occurrence.
// MessageID and AgentID are set per event type.
type Event struct {
	Type      string `json:"type"`
	SessionID int64  `json:"session_id"`
	ActorID   int64  `json:"actor_id"`
	MessageID int64  `json:"message_id,omitempty"`
	AgentID   int64  `json:"agent_id,omitempty"`
	Ts        int64  `json:"ts"`
}
