package httpdto

import (
	"time"

	"flexchat/internal/domain"

	"github.com/google/uuid"
)

type ParticipantRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Name   string    `json:"name"`
}

type CreateConversationRequest struct {
	Title        string               `json:"title"`
	Type         string               `json:"type" binding:"required,oneof=DIRECT GROUP"`
	Participants []ParticipantRequest `json:"participants" binding:"required,min=1,dive"`
}

func (r CreateConversationRequest) Domain() (domain.ConversationType, []domain.Participant) {
	participants := make([]domain.Participant, 0, len(r.Participants))
	for _, p := range r.Participants {
		participants = append(participants, domain.Participant{UserID: p.UserID, Name: p.Name})
	}
	return domain.ConversationType(r.Type), participants
}

type ArchiveRequest struct {
	Archived bool `json:"archived"`
}

type MuteRequest struct {
	Muted bool `json:"muted"`
}

type ConversationListResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
	Stale         bool                  `json:"stale,omitempty"`
	FetchedAt     time.Time             `json:"fetched_at"`
}
