package httpdto

import (
	"time"

	"flexchat/internal/domain"

	"github.com/google/uuid"
)

type SendMessageRequest struct {
	Content    string             `json:"content"`
	Type       string             `json:"type" binding:"omitempty,oneof=TEXT IMAGE FILE VOICE SYSTEM"`
	SenderName string             `json:"sender_name"`
	ReplyToID  *uuid.UUID         `json:"reply_to_id,omitempty"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type ReactionRequest struct {
	Reaction string `json:"reaction" binding:"required"`
}

type MarkReadRequest struct {
	MessageIDs []uuid.UUID `json:"message_ids" binding:"required,min=1"`
}

type MessageWindowResponse struct {
	Messages []domain.Message `json:"messages"`
	Stale    bool             `json:"stale,omitempty"`
	Before   *time.Time       `json:"before,omitempty"`
}
