package domain

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageText   MessageType = "TEXT"
	MessageImage  MessageType = "IMAGE"
	MessageFile   MessageType = "FILE"
	MessageVoice  MessageType = "VOICE"
	MessageSystem MessageType = "SYSTEM"
)

// DeliveryState is the per-recipient progression of a message.
type DeliveryState string

const (
	DeliverySending   DeliveryState = "SENDING"
	DeliverySent      DeliveryState = "SENT"
	DeliveryDelivered DeliveryState = "DELIVERED"
	DeliveryRead      DeliveryState = "READ"
)

// rank orders delivery states so a receipt never moves backwards.
func (s DeliveryState) rank() int {
	switch s {
	case DeliverySending:
		return 0
	case DeliverySent:
		return 1
	case DeliveryDelivered:
		return 2
	case DeliveryRead:
		return 3
	}
	return -1
}

// AtLeast reports whether s is at or beyond other in the progression.
func (s DeliveryState) AtLeast(other DeliveryState) bool {
	return s.rank() >= other.rank()
}

// DeliveryReceipt is one recipient's entry in a message's delivery map.
type DeliveryReceipt struct {
	State     DeliveryState `bson:"state" json:"state"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updated_at"`
}

// Attachment describes a stored file linked to a message.
type Attachment struct {
	FileName  string `bson:"file_name" json:"file_name"`
	URL       string `bson:"url" json:"url"`
	SizeBytes int64  `bson:"size_bytes" json:"size_bytes"`
	MimeType  string `bson:"mime_type" json:"mime_type"`
}

// DeletedPlaceholder replaces the content of soft-deleted messages.
const DeletedPlaceholder = "Dit bericht is verwijderd"

// Message is a single chat message. Soft deletion keeps the document in
// place (content replaced with DeletedPlaceholder) to preserve the audit
// trail and list position; hard deletion removes it outright.
type Message struct {
	ID             uuid.UUID                  `bson:"_id" json:"id"`
	ConversationID uuid.UUID                  `bson:"conversation_id" json:"conversation_id"`
	SenderID       uuid.UUID                  `bson:"sender_id" json:"sender_id"`
	SenderName     string                     `bson:"sender_name" json:"sender_name"`
	Content        string                     `bson:"content" json:"content"`
	Type           MessageType                `bson:"type" json:"type"`
	Attachment     *Attachment                `bson:"attachment,omitempty" json:"attachment,omitempty"`
	ReplyToID      *uuid.UUID                 `bson:"reply_to_id,omitempty" json:"reply_to_id,omitempty"`
	Delivery       map[string]DeliveryReceipt `bson:"delivery" json:"delivery"`
	Reactions      []string                   `bson:"reactions,omitempty" json:"reactions,omitempty"`
	IsEdited       bool                       `bson:"is_edited" json:"is_edited"`
	EditedAt       *time.Time                 `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	IsDeleted      bool                       `bson:"is_deleted" json:"is_deleted"`
	DeletedAt      *time.Time                 `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	CreatedAt      time.Time                  `bson:"created_at" json:"created_at"`

	// Pending marks a locally-queued message that has not reached the
	// store yet. Never persisted; the id is temporary until sync.
	Pending bool `bson:"-" json:"pending,omitempty"`
}

// HasReaction reports whether the reaction is already on the message.
func (m *Message) HasReaction(reaction string) bool {
	for _, r := range m.Reactions {
		if r == reaction {
			return true
		}
	}
	return false
}
