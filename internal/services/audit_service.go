package services

import (
	"context"
	"time"

	"flexchat/internal/domain"
	"flexchat/internal/store"
	"flexchat/pkg/logger"

	"github.com/google/uuid"
)

// AuditService records compliance-relevant chat actions. Recording is
// best-effort: a failed audit write is logged, never surfaced, so an
// audit outage cannot block messaging.
type AuditService struct {
	store store.AuditStore
	log   *logger.Logger
}

func NewAuditService(auditStore store.AuditStore, log *logger.Logger) *AuditService {
	return &AuditService{store: auditStore, log: log}
}

func (a *AuditService) Record(ctx context.Context, eventType string, actorID uuid.UUID, data map[string]any) {
	if a == nil || a.store == nil {
		return
	}
	event := &domain.AuditEvent{
		ID:        uuid.New(),
		Type:      eventType,
		ActorID:   actorID,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.Append(ctx, event); err != nil && a.log != nil {
		a.log.WithContext(ctx).Warn("audit append failed")
	}
}

func (a *AuditService) History(ctx context.Context, actorID uuid.UUID, limit int) ([]domain.AuditEvent, error) {
	return a.store.ListByActor(ctx, actorID, limit)
}
