package domain

import (
	"time"

	"github.com/google/uuid"
)

type ConversationType string

const (
	ConversationDirect ConversationType = "DIRECT"
	ConversationGroup  ConversationType = "GROUP"
)

// Participant tracks one user's membership in a conversation.
// Map keys in Conversation are the participant's user id in string form,
// which is what the document store requires for map fields.
type Participant struct {
	UserID   uuid.UUID `bson:"user_id" json:"user_id"`
	Name     string    `bson:"name" json:"name"`
	JoinedAt time.Time `bson:"joined_at" json:"joined_at"`
	IsActive bool      `bson:"is_active" json:"is_active"`
	IsOnline bool      `bson:"is_online" json:"is_online"`
	LastSeen time.Time `bson:"last_seen" json:"last_seen"`
}

// MessagePreview is the denormalized last-message summary stored on the
// conversation document. It is updated in the same transaction as the
// message insert so the conversation list never shows a stale preview.
type MessagePreview struct {
	MessageID uuid.UUID   `bson:"message_id" json:"message_id"`
	SenderID  uuid.UUID   `bson:"sender_id" json:"sender_id"`
	Content   string      `bson:"content" json:"content"`
	Type      MessageType `bson:"type" json:"type"`
	SentAt    time.Time   `bson:"sent_at" json:"sent_at"`
}

// Conversation is a chat thread between two or more participants.
// Conversations are never hard-deleted; archival is a flag flip.
type Conversation struct {
	ID           uuid.UUID              `bson:"_id" json:"id"`
	Title        string                 `bson:"title" json:"title"`
	Type         ConversationType       `bson:"type" json:"type"`
	Participants map[string]Participant `bson:"participants" json:"participants"`
	LastMessage  *MessagePreview        `bson:"last_message,omitempty" json:"last_message,omitempty"`
	IsArchived   bool                   `bson:"is_archived" json:"is_archived"`
	MutedBy      map[string]bool        `bson:"muted_by,omitempty" json:"muted_by,omitempty"`
	UnreadCounts map[string]int         `bson:"unread_counts,omitempty" json:"unread_counts,omitempty"`
	CreatedAt    time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time              `bson:"updated_at" json:"updated_at"`
}

// ActiveParticipantIDs returns the ids of participants that have not left.
func (c *Conversation) ActiveParticipantIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p.IsActive {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}

// HasActiveParticipant reports whether userID is an active member.
func (c *Conversation) HasActiveParticipant(userID uuid.UUID) bool {
	p, ok := c.Participants[userID.String()]
	return ok && p.IsActive
}

// IsMutedBy reports whether userID muted this conversation.
func (c *Conversation) IsMutedBy(userID uuid.UUID) bool {
	return c.MutedBy[userID.String()]
}
