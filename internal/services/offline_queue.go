package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"flexchat/internal/domain"
	"flexchat/internal/store"
	flexerrors "flexchat/pkg/errors"
	"flexchat/pkg/logger"

	"github.com/google/uuid"
)

// OfflineQueue holds messages that could not reach the store, in send
// order. Queued messages carry a temporary id and Pending=true; on sync
// the store assigns the real id, so consumers must treat pending ids as
// churn, not identity.
type OfflineQueue struct {
	mu    sync.Mutex
	items []domain.Message
}

func NewOfflineQueue() *OfflineQueue {
	return &OfflineQueue{}
}

func (q *OfflineQueue) Enqueue(msg domain.Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	msg.Pending = true
	q.items = append(q.items, msg)
}

func (q *OfflineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending returns the queued messages for one conversation, oldest
// first, for merging into a displayed message window.
func (q *OfflineQueue) Pending(conversationID uuid.UUID) []domain.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []domain.Message
	for _, m := range q.items {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out
}

func (q *OfflineQueue) take() []domain.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

func (q *OfflineQueue) requeue(items []domain.Message) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(items, q.items...)
}

// SyncResult reports one drain attempt over the queue.
type SyncResult struct {
	Synced  int
	Dropped int
}

// Sync drains the queue into the store. A message whose conversation
// has been archived or deleted while offline is dropped and audited,
// not delivered. If the store fails mid-drain the remaining messages go
// back to the front of the queue for the next attempt.
func (q *OfflineQueue) Sync(ctx context.Context, conversations store.ConversationStore, messages store.MessageStore, audit *AuditService) (SyncResult, error) {
	items := q.take()
	var result SyncResult

	for i, msg := range items {
		conv, err := conversations.GetByID(ctx, msg.ConversationID)
		switch {
		case errors.Is(err, flexerrors.ErrNotFound):
			result.Dropped++
			audit.Record(ctx, "offline.message.dropped", msg.SenderID, map[string]any{
				"conversation_id": msg.ConversationID.String(),
				"reason":          "conversation deleted",
			})
			continue
		case err != nil:
			q.requeue(items[i:])
			return result, err
		}
		if conv.IsArchived {
			result.Dropped++
			audit.Record(ctx, "offline.message.dropped", msg.SenderID, map[string]any{
				"conversation_id": msg.ConversationID.String(),
				"reason":          "conversation archived",
			})
			continue
		}

		// Fresh server id; the temporary id dies here.
		msg.ID = uuid.Nil
		msg.Pending = false
		msg.CreatedAt = time.Time{}
		if err := messages.Send(ctx, &msg); err != nil {
			q.requeue(items[i:])
			return result, err
		}
		result.Synced++
	}
	return result, nil
}

// SyncRunner drains an offline queue on a fixed interval until the
// context is cancelled.
type SyncRunner struct {
	queue         *OfflineQueue
	conversations store.ConversationStore
	messages      store.MessageStore
	audit         *AuditService
	interval      time.Duration
	log           *logger.Logger
}

func NewSyncRunner(queue *OfflineQueue, conversations store.ConversationStore, messages store.MessageStore, audit *AuditService, interval time.Duration, log *logger.Logger) *SyncRunner {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SyncRunner{
		queue:         queue,
		conversations: conversations,
		messages:      messages,
		audit:         audit,
		interval:      interval,
		log:           log,
	}
}

func (r *SyncRunner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.queue.Len() == 0 {
				continue
			}
			result, err := r.queue.Sync(ctx, r.conversations, r.messages, r.audit)
			if err != nil {
				r.log.Warnf("offline sync attempt failed after %d messages: %v", result.Synced, err)
				continue
			}
			if result.Synced > 0 || result.Dropped > 0 {
				r.log.Infof("offline sync: %d delivered, %d dropped", result.Synced, result.Dropped)
			}
		}
	}
}
