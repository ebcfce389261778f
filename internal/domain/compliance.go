package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEvent is one entry in the append-only audit trail.
type AuditEvent struct {
	ID        uuid.UUID      `bson:"_id" json:"id"`
	Type      string         `bson:"type" json:"type"`
	ActorID   uuid.UUID      `bson:"actor_id" json:"actor_id"`
	Data      map[string]any `bson:"data,omitempty" json:"data,omitempty"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}

// ChatDataExport bundles everything a user is entitled to receive under a
// data-portability request.
type ChatDataExport struct {
	UserID        uuid.UUID      `json:"user_id"`
	Conversations []Conversation `json:"conversations"`
	Messages      []Message      `json:"messages"`
	GeneratedAt   time.Time      `json:"generated_at"`
}

// RetentionReport summarizes how much chat data is held for a user.
type RetentionReport struct {
	UserID            uuid.UUID  `json:"user_id"`
	ConversationCount int        `json:"conversation_count"`
	MessageCount      int64      `json:"message_count"`
	OldestMessageAt   *time.Time `json:"oldest_message_at,omitempty"`
	GeneratedAt       time.Time  `json:"generated_at"`
}
