package store

import (
	"context"
	"time"

	"flexchat/internal/domain"
	"flexchat/internal/events"
	"flexchat/pkg/logger"

	"github.com/google/uuid"
)

var timeZero time.Time

// Watcher turns write signals on the event bus into snapshot streams.
// Every signal triggers a full re-query of the ordered window; there is
// no incremental diffing, so a consumer always holds a complete list.
type Watcher struct {
	conversations ConversationStore
	messages      MessageStore
	subscriber    events.Subscriber
	log           *logger.Logger
}

func NewWatcher(conversations ConversationStore, messages MessageStore, subscriber events.Subscriber, log *logger.Logger) *Watcher {
	return &Watcher{
		conversations: conversations,
		messages:      messages,
		subscriber:    subscriber,
		log:           log,
	}
}

// WatchUserConversations streams the user's conversation list. The first
// snapshot is delivered immediately; afterwards one snapshot per change
// signal on the user's channel. The channel closes when ctx is cancelled.
func (w *Watcher) WatchUserConversations(ctx context.Context, userID uuid.UUID, limit int) (<-chan []domain.Conversation, error) {
	out := make(chan []domain.Conversation, 1)

	snapshot := func() {
		conversations, err := w.conversations.GetUserConversations(ctx, userID, limit)
		if err != nil {
			if w.log != nil {
				w.log.Warnf("conversation watch re-query failed: %v", err)
			}
			return
		}
		deliver(out, conversations)
	}

	snapshot()
	go func() {
		defer close(out)
		err := w.subscriber.Subscribe(ctx, []string{events.UserChannel(userID)}, func(string, events.Envelope) {
			snapshot()
		})
		if err != nil && ctx.Err() == nil && w.log != nil {
			w.log.Errorf("conversation watch subscription ended: %v", err)
		}
	}()
	return out, nil
}

// WatchMessages streams the newest-first message window for a
// conversation, re-queried on every change signal.
func (w *Watcher) WatchMessages(ctx context.Context, conversationID uuid.UUID, limit int) (<-chan []domain.Message, error) {
	out := make(chan []domain.Message, 1)

	snapshot := func() {
		messages, err := w.messages.GetMessages(ctx, conversationID, limit, timeZero)
		if err != nil {
			if w.log != nil {
				w.log.Warnf("message watch re-query failed: %v", err)
			}
			return
		}
		deliver(out, messages)
	}

	snapshot()
	go func() {
		defer close(out)
		err := w.subscriber.Subscribe(ctx, []string{events.ConversationChannel(conversationID)}, func(string, events.Envelope) {
			snapshot()
		})
		if err != nil && ctx.Err() == nil && w.log != nil {
			w.log.Errorf("message watch subscription ended: %v", err)
		}
	}()
	return out, nil
}

// deliver replaces a pending snapshot rather than blocking the store; a
// slow consumer only ever misses intermediate states, never the latest.
func deliver[T any](ch chan T, value T) {
	for {
		select {
		case ch <- value:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
