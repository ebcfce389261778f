package services

import (
	"context"
	"time"

	"flexchat/internal/domain"
	"flexchat/internal/store"
	"flexchat/pkg/logger"

	"github.com/google/uuid"
)

// Compliance covers the data-subject rights the chat system honors:
// access (export), erasure, and a retention summary.
type Compliance interface {
	ExportUserData(ctx context.Context, userID uuid.UUID) (domain.ChatDataExport, error)
	EraseUserData(ctx context.Context, userID uuid.UUID) (int64, error)
	RetentionReport(ctx context.Context, userID uuid.UUID) (domain.RetentionReport, error)
}

type GDPRService struct {
	conversations store.ConversationStore
	messages      store.MessageStore
	audit         *AuditService
	log           *logger.Logger
}

func NewGDPRService(conversations store.ConversationStore, messages store.MessageStore, audit *AuditService, log *logger.Logger) *GDPRService {
	return &GDPRService{
		conversations: conversations,
		messages:      messages,
		audit:         audit,
		log:           log,
	}
}

// ExportUserData collects every conversation the user ever joined,
// archived included, and every message they authored.
func (g *GDPRService) ExportUserData(ctx context.Context, userID uuid.UUID) (domain.ChatDataExport, error) {
	conversations, err := g.conversations.GetParticipating(ctx, userID)
	if err != nil {
		return domain.ChatDataExport{}, err
	}
	messages, err := g.messages.GetUserMessages(ctx, userID)
	if err != nil {
		return domain.ChatDataExport{}, err
	}

	g.audit.Record(ctx, "gdpr.export", userID, map[string]any{
		"conversation_count": len(conversations),
		"message_count":      len(messages),
	})
	return domain.ChatDataExport{
		UserID:        userID,
		Conversations: conversations,
		Messages:      messages,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

// EraseUserData anonymizes every message the user authored. Documents
// stay in place so other participants keep a coherent history; the
// content and sender name are blanked. Returns the number of messages
// touched.
func (g *GDPRService) EraseUserData(ctx context.Context, userID uuid.UUID) (int64, error) {
	erased, err := g.messages.EraseUserMessages(ctx, userID)
	if err != nil {
		return 0, err
	}
	g.log.Infof("erased %d messages for user %s", erased, userID)
	g.audit.Record(ctx, "gdpr.erase", userID, map[string]any{"message_count": erased})
	return erased, nil
}

// RetentionReport summarizes how much chat data is held for the user.
func (g *GDPRService) RetentionReport(ctx context.Context, userID uuid.UUID) (domain.RetentionReport, error) {
	conversations, err := g.conversations.GetParticipating(ctx, userID)
	if err != nil {
		return domain.RetentionReport{}, err
	}
	count, err := g.messages.CountUserMessages(ctx, userID)
	if err != nil {
		return domain.RetentionReport{}, err
	}
	oldest, err := g.messages.OldestUserMessage(ctx, userID)
	if err != nil {
		return domain.RetentionReport{}, err
	}

	report := domain.RetentionReport{
		UserID:            userID,
		ConversationCount: len(conversations),
		MessageCount:      count,
		GeneratedAt:       time.Now().UTC(),
	}
	if oldest != nil {
		at := oldest.CreatedAt
		report.OldestMessageAt = &at
	}
	return report, nil
}
