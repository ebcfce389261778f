package store

import (
	"context"
	"time"

	"flexchat/internal/domain"

	"github.com/google/uuid"
)

// ConversationStore is the conversation half of the remote data source.
// Calls are not retried here; the service layer degrades to cache.
type ConversationStore interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	// GetUserConversations returns conversations where the user is an
	// active participant and the conversation is not archived, newest
	// update first, capped at limit.
	GetUserConversations(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Conversation, error)
	SetArchived(ctx context.Context, id uuid.UUID, archived bool) error
	SetMuted(ctx context.Context, id, userID uuid.UUID, muted bool) error
	ResetUnread(ctx context.Context, id, userID uuid.UUID) error
	SetParticipantPresence(ctx context.Context, id, userID uuid.UUID, online bool, lastSeen time.Time) error
	GetParticipating(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error)
}

// MessageStore is the message half of the remote data source.
type MessageStore interface {
	// Send persists the message and updates the parent conversation's
	// last-message preview, updated_at and unread counts in one
	// all-or-nothing transaction.
	Send(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Message, error)
	// GetMessages returns the newest messages first. A zero before time
	// means "from the top"; otherwise only messages older than before.
	GetMessages(ctx context.Context, conversationID uuid.UUID, limit int, before time.Time) ([]domain.Message, error)
	Edit(ctx context.Context, id uuid.UUID, content string, editedAt time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	AddReaction(ctx context.Context, id uuid.UUID, reaction string) error
	RemoveReaction(ctx context.Context, id uuid.UUID, reaction string) error
	// SetDeliveryState writes one recipient's receipt. The state never
	// moves backwards; marking read promotes delivery to read.
	SetDeliveryState(ctx context.Context, id, userID uuid.UUID, state domain.DeliveryState) error
	Search(ctx context.Context, conversationID uuid.UUID, query string, limit int) ([]domain.Message, error)

	// Per-user queries for compliance.
	GetUserMessages(ctx context.Context, senderID uuid.UUID) ([]domain.Message, error)
	CountUserMessages(ctx context.Context, senderID uuid.UUID) (int64, error)
	OldestUserMessage(ctx context.Context, senderID uuid.UUID) (*domain.Message, error)
	EraseUserMessages(ctx context.Context, senderID uuid.UUID) (int64, error)
}

// AuditStore persists the append-only audit trail.
type AuditStore interface {
	Append(ctx context.Context, event *domain.AuditEvent) error
	ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]domain.AuditEvent, error)
}
