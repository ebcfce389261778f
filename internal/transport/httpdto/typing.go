package httpdto

import "github.com/google/uuid"

type SetTypingRequest struct {
	IsTyping bool `json:"is_typing"`
}

type TypingUsersResponse struct {
	UserIDs []uuid.UUID `json:"user_ids"`
}

type PresenceResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen string    `json:"last_seen,omitempty"`
}
