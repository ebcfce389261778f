package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventMessageCreated     EventType = "message.created"
	EventMessageEdited      EventType = "message.edited"
	EventMessageDeleted     EventType = "message.deleted"
	EventMessageReacted     EventType = "message.reacted"
	EventMessageDelivered   EventType = "message.delivered"
	EventMessageRead        EventType = "message.read"
	EventConversationChange EventType = "conversation.changed"
	EventTypingStarted      EventType = "typing.started"
	EventTypingStopped      EventType = "typing.stopped"
	EventPresenceOnline     EventType = "presence.online"
	EventPresenceOffline    EventType = "presence.offline"
)

// Envelope is the wire form of every published event.
type Envelope struct {
	EventType     EventType       `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// Channel naming. Watchers subscribe per conversation or per user; the
// store publishes to both so conversation-list watchers see updates too.
func ConversationChannel(conversationID uuid.UUID) string {
	return "channel:conversation:" + conversationID.String()
}

func UserChannel(userID uuid.UUID) string {
	return "channel:user:" + userID.String()
}

func PresenceChannel(userID uuid.UUID) string {
	return "channel:presence:" + userID.String()
}
