package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"flexchat/internal/config"
	"flexchat/internal/domain"
	flexerrors "flexchat/pkg/errors"
	"flexchat/pkg/logger"

	"github.com/google/uuid"
)

var errStoreDown = errors.New("store down")

type fakeConversationStore struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]domain.Conversation
	failing       bool
	unreadResets  int
}

func newFakeConversationStore() *fakeConversationStore {
	return &fakeConversationStore{conversations: make(map[uuid.UUID]domain.Conversation)}
}

func (f *fakeConversationStore) Create(ctx context.Context, conv *domain.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errStoreDown
	}
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	f.conversations[conv.ID] = *conv
	return nil
}

func (f *fakeConversationStore) GetByID(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return domain.Conversation{}, errStoreDown
	}
	conv, ok := f.conversations[id]
	if !ok {
		return domain.Conversation{}, flexerrors.ErrNotFound
	}
	return conv, nil
}

func (f *fakeConversationStore) GetUserConversations(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, errStoreDown
	}
	var out []domain.Conversation
	for _, conv := range f.conversations {
		if conv.IsArchived {
			continue
		}
		if p, ok := conv.Participants[userID.String()]; ok && p.IsActive {
			out = append(out, conv)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeConversationStore) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok {
		return flexerrors.ErrNotFound
	}
	conv.IsArchived = archived
	f.conversations[id] = conv
	return nil
}

func (f *fakeConversationStore) SetMuted(ctx context.Context, id, userID uuid.UUID, muted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok {
		return flexerrors.ErrNotFound
	}
	if conv.MutedBy == nil {
		conv.MutedBy = make(map[string]bool)
	}
	if muted {
		conv.MutedBy[userID.String()] = true
	} else {
		delete(conv.MutedBy, userID.String())
	}
	f.conversations[id] = conv
	return nil
}

func (f *fakeConversationStore) ResetUnread(ctx context.Context, id, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unreadResets++
	return nil
}

func (f *fakeConversationStore) SetParticipantPresence(ctx context.Context, id, userID uuid.UUID, online bool, lastSeen time.Time) error {
	return nil
}

func (f *fakeConversationStore) GetParticipating(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Conversation
	for _, conv := range f.conversations {
		if _, ok := conv.Participants[userID.String()]; ok {
			out = append(out, conv)
		}
	}
	return out, nil
}

type fakeMessageStore struct {
	mu            sync.Mutex
	messages      map[uuid.UUID]domain.Message
	failing       bool
	reactionCalls int
	sendCalls     int
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{messages: make(map[uuid.UUID]domain.Message)}
}

func (f *fakeMessageStore) Send(ctx context.Context, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errStoreDown
	}
	f.sendCalls++
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	f.messages[msg.ID] = *msg
	return nil
}

func (f *fakeMessageStore) GetByID(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return domain.Message{}, errStoreDown
	}
	msg, ok := f.messages[id]
	if !ok {
		return domain.Message{}, flexerrors.ErrNotFound
	}
	return msg, nil
}

func (f *fakeMessageStore) GetMessages(ctx context.Context, conversationID uuid.UUID, limit int, before time.Time) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, errStoreDown
	}
	var out []domain.Message
	for _, msg := range f.messages {
		if msg.ConversationID != conversationID {
			continue
		}
		if !before.IsZero() && !msg.CreatedAt.Before(before) {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (f *fakeMessageStore) Edit(ctx context.Context, id uuid.UUID, content string, editedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return flexerrors.ErrNotFound
	}
	msg.Content = content
	msg.IsEdited = true
	msg.EditedAt = &editedAt
	f.messages[id] = msg
	return nil
}

func (f *fakeMessageStore) SoftDelete(ctx context.Context, id uuid.UUID, deletedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return flexerrors.ErrNotFound
	}
	msg.Content = domain.DeletedPlaceholder
	msg.IsDeleted = true
	msg.DeletedAt = &deletedAt
	msg.Attachment = nil
	f.messages[id] = msg
	return nil
}

func (f *fakeMessageStore) HardDelete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[id]; !ok {
		return flexerrors.ErrNotFound
	}
	delete(f.messages, id)
	return nil
}

func (f *fakeMessageStore) AddReaction(ctx context.Context, id uuid.UUID, reaction string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactionCalls++
	msg, ok := f.messages[id]
	if !ok {
		return flexerrors.ErrNotFound
	}
	msg.Reactions = append(msg.Reactions, reaction)
	f.messages[id] = msg
	return nil
}

func (f *fakeMessageStore) RemoveReaction(ctx context.Context, id uuid.UUID, reaction string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactionCalls++
	msg, ok := f.messages[id]
	if !ok {
		return flexerrors.ErrNotFound
	}
	var kept []string
	for _, r := range msg.Reactions {
		if r != reaction {
			kept = append(kept, r)
		}
	}
	msg.Reactions = kept
	f.messages[id] = msg
	return nil
}

func (f *fakeMessageStore) SetDeliveryState(ctx context.Context, id, userID uuid.UUID, state domain.DeliveryState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return flexerrors.ErrNotFound
	}
	if msg.Delivery == nil {
		msg.Delivery = make(map[string]domain.DeliveryReceipt)
	}
	if receipt, ok := msg.Delivery[userID.String()]; ok && receipt.State.AtLeast(state) {
		return nil
	}
	msg.Delivery[userID.String()] = domain.DeliveryReceipt{State: state, UpdatedAt: time.Now().UTC()}
	f.messages[id] = msg
	return nil
}

func (f *fakeMessageStore) Search(ctx context.Context, conversationID uuid.UUID, query string, limit int) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID && !msg.IsDeleted &&
			strings.Contains(strings.ToLower(msg.Content), strings.ToLower(query)) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) GetUserMessages(ctx context.Context, senderID uuid.UUID) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, msg := range f.messages {
		if msg.SenderID == senderID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) CountUserMessages(ctx context.Context, senderID uuid.UUID) (int64, error) {
	msgs, _ := f.GetUserMessages(ctx, senderID)
	return int64(len(msgs)), nil
}

func (f *fakeMessageStore) OldestUserMessage(ctx context.Context, senderID uuid.UUID) (*domain.Message, error) {
	msgs, _ := f.GetUserMessages(ctx, senderID)
	var oldest *domain.Message
	for i := range msgs {
		if oldest == nil || msgs[i].CreatedAt.Before(oldest.CreatedAt) {
			oldest = &msgs[i]
		}
	}
	return oldest, nil
}

func (f *fakeMessageStore) EraseUserMessages(ctx context.Context, senderID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	now := time.Now().UTC()
	for id, msg := range f.messages {
		if msg.SenderID != senderID {
			continue
		}
		msg.Content = domain.DeletedPlaceholder
		msg.SenderName = "Verwijderde gebruiker"
		msg.IsDeleted = true
		msg.DeletedAt = &now
		msg.Attachment = nil
		f.messages[id] = msg
		count++
	}
	return count, nil
}

type fakeAuditStore struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (f *fakeAuditStore) Append(ctx context.Context, event *domain.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeAuditStore) ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]domain.AuditEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AuditEvent
	for _, e := range f.events {
		if e.ActorID == actorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditStore) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.Type)
	}
	return types
}

type fakeTypingTracker struct {
	mu     sync.Mutex
	typing map[string]bool
}

func newFakeTypingTracker() *fakeTypingTracker {
	return &fakeTypingTracker{typing: make(map[string]bool)}
}

func (f *fakeTypingTracker) SetTyping(ctx context.Context, conversationID, userID uuid.UUID, isTyping bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := conversationID.String() + ":" + userID.String()
	if isTyping {
		f.typing[key] = true
	} else {
		delete(f.typing, key)
	}
	return nil
}

func (f *fakeTypingTracker) TypingUsers(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []uuid.UUID
	for key := range f.typing {
		parts := strings.SplitN(key, ":", 2)
		if parts[0] != conversationID.String() {
			continue
		}
		if id, err := uuid.Parse(parts[1]); err == nil {
			users = append(users, id)
		}
	}
	return users, nil
}

type testEnv struct {
	chat          *ChatService
	conversations *fakeConversationStore
	messages      *fakeMessageStore
	audits        *fakeAuditStore
	typing        *fakeTypingTracker
	offline       *OfflineQueue
}

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		EditWindow:       15 * time.Minute,
		TypingTTL:        10 * time.Second,
		ConversationCap:  50,
		MessageWindow:    50,
		MaxImageBytes:    10 << 20,
		MaxDocumentBytes: 100 << 20,
		OfflineSyncEvery: 30 * time.Second,
		CacheTTL:         time.Minute,
	}
}

func newTestEnv(t interface{ Cleanup(func()) }) *testEnv {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	conversations := newFakeConversationStore()
	messages := newFakeMessageStore()
	audits := &fakeAuditStore{}
	typing := newFakeTypingTracker()
	offline := NewOfflineQueue()
	log := logger.NewNop()

	chat := NewChatService(ctx, conversations, messages, typing, nil, offline,
		NewAuditService(audits, log), testChatConfig(), log)

	return &testEnv{
		chat:          chat,
		conversations: conversations,
		messages:      messages,
		audits:        audits,
		typing:        typing,
		offline:       offline,
	}
}

// seedConversation stores a direct conversation between two users and
// returns it plus a request context for the first.
func (e *testEnv) seedConversation(sender, recipient uuid.UUID) (domain.Conversation, context.Context) {
	conv := domain.Conversation{
		ID:   uuid.New(),
		Type: domain.ConversationDirect,
		Participants: map[string]domain.Participant{
			sender.String():    {UserID: sender, IsActive: true},
			recipient.String(): {UserID: recipient, IsActive: true},
		},
		UnreadCounts: make(map[string]int),
	}
	e.conversations.conversations[conv.ID] = conv
	return conv, WithUserContext(context.Background(), sender)
}
