package services

import (
	"context"
	"testing"
	"time"

	"flexchat/internal/domain"
	"flexchat/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queuedMessage(conversationID, senderID uuid.UUID, content string) domain.Message {
	return domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Type:           domain.MessageText,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestOfflineQueuePreservesSendOrder(t *testing.T) {
	conversations := newFakeConversationStore()
	messages := newFakeMessageStore()
	audit := NewAuditService(&fakeAuditStore{}, logger.NewNop())
	queue := NewOfflineQueue()

	sender := uuid.New()
	conv := domain.Conversation{
		ID: uuid.New(),
		Participants: map[string]domain.Participant{
			sender.String(): {UserID: sender, IsActive: true},
		},
	}
	conversations.conversations[conv.ID] = conv

	queue.Enqueue(queuedMessage(conv.ID, sender, "eerste"))
	queue.Enqueue(queuedMessage(conv.ID, sender, "tweede"))
	require.Equal(t, 2, queue.Len())

	pending := queue.Pending(conv.ID)
	require.Len(t, pending, 2)
	assert.Equal(t, "eerste", pending[0].Content)
	assert.True(t, pending[0].Pending)

	result, err := queue.Sync(context.Background(), conversations, messages, audit)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Synced)
	assert.Zero(t, queue.Len())
	assert.Equal(t, 2, messages.sendCalls)
}

func TestOfflineQueueRequeuesOnStoreFailure(t *testing.T) {
	conversations := newFakeConversationStore()
	messages := newFakeMessageStore()
	audit := NewAuditService(&fakeAuditStore{}, logger.NewNop())
	queue := NewOfflineQueue()

	sender := uuid.New()
	conv := domain.Conversation{
		ID: uuid.New(),
		Participants: map[string]domain.Participant{
			sender.String(): {UserID: sender, IsActive: true},
		},
	}
	conversations.conversations[conv.ID] = conv

	queue.Enqueue(queuedMessage(conv.ID, sender, "blijft staan"))
	messages.failing = true

	_, err := queue.Sync(context.Background(), conversations, messages, audit)
	require.Error(t, err)
	assert.Equal(t, 1, queue.Len())

	// Recovery drains the requeued message.
	messages.failing = false
	result, err := queue.Sync(context.Background(), conversations, messages, audit)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	assert.Zero(t, queue.Len())
}

func TestOfflineQueueDropsForMissingConversation(t *testing.T) {
	conversations := newFakeConversationStore()
	messages := newFakeMessageStore()
	audits := &fakeAuditStore{}
	audit := NewAuditService(audits, logger.NewNop())
	queue := NewOfflineQueue()

	queue.Enqueue(queuedMessage(uuid.New(), uuid.New(), "nergens heen"))

	result, err := queue.Sync(context.Background(), conversations, messages, audit)
	require.NoError(t, err)
	assert.Zero(t, result.Synced)
	assert.Equal(t, 1, result.Dropped)
	assert.Zero(t, messages.sendCalls)
	assert.Contains(t, audits.eventTypes(), "offline.message.dropped")
}
