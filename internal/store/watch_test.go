package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"flexchat/internal/domain"
	"flexchat/internal/events"
	"flexchat/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConversations struct {
	ConversationStore
	mu   sync.Mutex
	list []domain.Conversation
}

func (s *stubConversations) set(list []domain.Conversation) {
	s.mu.Lock()
	s.list = list
	s.mu.Unlock()
}

func (s *stubConversations) GetUserConversations(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list, nil
}

type stubMessages struct {
	MessageStore
	mu   sync.Mutex
	list []domain.Message
}

func (s *stubMessages) set(list []domain.Message) {
	s.mu.Lock()
	s.list = list
	s.mu.Unlock()
}

func (s *stubMessages) GetMessages(ctx context.Context, conversationID uuid.UUID, limit int, before time.Time) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list, nil
}

// stubSubscriber hands the registered handler back to the test so it
// can fire change signals on demand.
type stubSubscriber struct {
	mu      sync.Mutex
	handler func(channel string, env events.Envelope)
	ready   chan struct{}
}

func newStubSubscriber() *stubSubscriber {
	return &stubSubscriber{ready: make(chan struct{})}
}

func (s *stubSubscriber) Subscribe(ctx context.Context, patterns []string, handler func(channel string, env events.Envelope)) error {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
	close(s.ready)
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubSubscriber) signal() {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	handler("test", events.Envelope{EventType: events.EventConversationChange})
}

func TestWatchUserConversationsRedeliversFullSnapshot(t *testing.T) {
	conversations := &stubConversations{}
	subscriber := newStubSubscriber()
	watcher := NewWatcher(conversations, &stubMessages{}, subscriber, logger.NewNop())

	first := []domain.Conversation{{ID: uuid.New()}}
	conversations.set(first)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, err := watcher.WatchUserConversations(ctx, uuid.New(), 50)
	require.NoError(t, err)

	snapshot := <-snapshots
	assert.Equal(t, first, snapshot)

	<-subscriber.ready
	second := []domain.Conversation{{ID: uuid.New()}, {ID: uuid.New()}}
	conversations.set(second)
	subscriber.signal()

	snapshot = <-snapshots
	assert.Len(t, snapshot, 2)
	assert.Equal(t, second, snapshot)
}

func TestWatchMessagesClosesOnCancel(t *testing.T) {
	messages := &stubMessages{}
	messages.set([]domain.Message{{ID: uuid.New()}})
	subscriber := newStubSubscriber()
	watcher := NewWatcher(&stubConversations{}, messages, subscriber, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	snapshots, err := watcher.WatchMessages(ctx, uuid.New(), 50)
	require.NoError(t, err)

	snapshot := <-snapshots
	assert.Len(t, snapshot, 1)

	<-subscriber.ready
	cancel()

	for range snapshots {
	}
}

func TestDeliverReplacesStaleSnapshot(t *testing.T) {
	ch := make(chan int, 1)
	deliver(ch, 1)
	deliver(ch, 2)
	deliver(ch, 3)

	// A slow consumer only ever sees the latest value.
	assert.Equal(t, 3, <-ch)
}
