package domain

import (
	"time"

	"github.com/google/uuid"
)

// TypingStatus is the ephemeral signal that a participant is composing a
// message. Records expire server-side; writers also delete them on stop.
type TypingStatus struct {
	UserID         uuid.UUID `json:"user_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	IsTyping       bool      `json:"is_typing"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserPresence tracks a user's connect/disconnect state.
type UserPresence struct {
	UserID   uuid.UUID `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}
