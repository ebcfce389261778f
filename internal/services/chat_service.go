package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"flexchat/internal/config"
	"flexchat/internal/domain"
	"flexchat/internal/store"
	flexerrors "flexchat/pkg/errors"
	"flexchat/pkg/logger"

	"github.com/c-pro/geche"
	"github.com/google/uuid"
)

// TypingTracker is the typing-indicator surface the chat service needs.
type TypingTracker interface {
	SetTyping(ctx context.Context, conversationID, userID uuid.UUID, isTyping bool) error
	TypingUsers(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
}

// ConversationList is a conversation query result. Stale marks a cached
// fallback served while the store was unreachable.
type ConversationList struct {
	Conversations []domain.Conversation `json:"conversations"`
	Stale         bool                  `json:"stale,omitempty"`
}

// MessageWindow is an ordered (newest first) message query result.
// Pending offline messages for the conversation are appended at the
// front so the sender sees them immediately.
type MessageWindow struct {
	Messages []domain.Message `json:"messages"`
	Stale    bool             `json:"stale,omitempty"`
}

// SendInput carries everything needed to send one message.
type SendInput struct {
	ConversationID uuid.UUID
	Content        string
	Type           domain.MessageType
	Attachment     *domain.Attachment
	ReplyToID      *uuid.UUID
	SenderName     string
}

// ChatService is the business layer between transport and the stores.
// It owns the read-through caches, the offline queue, and every rule
// about who may do what to a message.
type ChatService struct {
	conversations store.ConversationStore
	messages      store.MessageStore
	typing        TypingTracker
	watcher       *store.Watcher
	offline       *OfflineQueue
	audit         *AuditService
	convCache     geche.Geche[string, []domain.Conversation]
	msgCache      geche.Geche[string, []domain.Message]
	cfg           config.ChatConfig
	log           *logger.Logger
}

func NewChatService(
	ctx context.Context,
	conversations store.ConversationStore,
	messages store.MessageStore,
	typing TypingTracker,
	watcher *store.Watcher,
	offline *OfflineQueue,
	audit *AuditService,
	cfg config.ChatConfig,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		typing:        typing,
		watcher:       watcher,
		offline:       offline,
		audit:         audit,
		convCache:     geche.NewMapTTLCache[string, []domain.Conversation](ctx, cfg.CacheTTL, time.Minute),
		msgCache:      geche.NewMapTTLCache[string, []domain.Message](ctx, cfg.CacheTTL, time.Minute),
		cfg:           cfg,
		log:           log,
	}
}

// CreateConversation starts a conversation between the caller and the
// given participants. The caller is always an active participant.
func (s *ChatService) CreateConversation(ctx context.Context, title string, convType domain.ConversationType, participants []domain.Participant) (domain.Conversation, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return domain.Conversation{}, err
	}
	if convType != domain.ConversationDirect && convType != domain.ConversationGroup {
		return domain.Conversation{}, flexerrors.ErrInvalidInput
	}

	now := time.Now().UTC()
	members := make(map[string]domain.Participant, len(participants)+1)
	for _, p := range participants {
		p.JoinedAt = now
		p.IsActive = true
		members[p.UserID.String()] = p
	}
	if _, ok := members[userID.String()]; !ok {
		members[userID.String()] = domain.Participant{UserID: userID, JoinedAt: now, IsActive: true}
	}
	if convType == domain.ConversationDirect && len(members) != 2 {
		return domain.Conversation{}, flexerrors.ErrInvalidInput
	}

	conv := domain.Conversation{
		Title:        title,
		Type:         convType,
		Participants: members,
		UnreadCounts: make(map[string]int),
	}
	if err := s.conversations.Create(ctx, &conv); err != nil {
		return domain.Conversation{}, err
	}
	s.invalidateConversations(conv)
	s.audit.Record(ctx, "conversation.created", userID, map[string]any{"conversation_id": conv.ID.String()})
	return conv, nil
}

// GetConversations returns the caller's active conversation list,
// newest activity first. When the store is unreachable a cached list is
// served with Stale=true; with no cache either, ErrStoreUnavailable.
func (s *ChatService) GetConversations(ctx context.Context) (ConversationList, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return ConversationList{}, err
	}

	conversations, err := s.conversations.GetUserConversations(ctx, userID, s.cfg.ConversationCap)
	if err != nil {
		if cached, cacheErr := s.convCache.Get(userID.String()); cacheErr == nil {
			s.log.WithContext(ctx).Warn("serving stale conversation list")
			return ConversationList{Conversations: cached, Stale: true}, nil
		}
		return ConversationList{}, flexerrors.ErrStoreUnavailable
	}
	s.convCache.Set(userID.String(), conversations)
	return ConversationList{Conversations: conversations}, nil
}

// GetMessages returns the newest-first window of a conversation. A zero
// before means the top of the list. The caller's queued offline
// messages are prepended so they are visible before the store has them.
func (s *ChatService) GetMessages(ctx context.Context, conversationID uuid.UUID, before time.Time) (MessageWindow, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return MessageWindow{}, err
	}
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return MessageWindow{}, err
	}

	window := MessageWindow{}
	messages, err := s.messages.GetMessages(ctx, conversationID, s.cfg.MessageWindow, before)
	if err != nil {
		cached, cacheErr := s.msgCache.Get(conversationID.String())
		if cacheErr != nil {
			return MessageWindow{}, flexerrors.ErrStoreUnavailable
		}
		s.log.WithContext(ctx).Warn("serving stale message window")
		window.Messages = cached
		window.Stale = true
	} else {
		s.msgCache.Set(conversationID.String(), messages)
		window.Messages = messages
	}

	if before.IsZero() {
		window.Messages = append(pendingNewestFirst(s.offline.Pending(conversationID)), window.Messages...)
	}
	return window, nil
}

// SendMessage delivers one message. The message starts SENDING; after
// the transactional store write each active recipient's receipt is
// SENT. If the store is unreachable the message is queued offline under
// a temporary id and ErrQueuedOffline is returned with the pending
// message, which is a degraded success, not a failure.
func (s *ChatService) SendMessage(ctx context.Context, in SendInput) (domain.Message, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return domain.Message{}, err
	}
	if in.Type == "" {
		in.Type = domain.MessageText
	}
	if strings.TrimSpace(in.Content) == "" && in.Attachment == nil {
		return domain.Message{}, flexerrors.ErrInvalidInput
	}

	conv, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		return s.queueOffline(ctx, userID, in, err)
	}
	if !conv.HasActiveParticipant(userID) {
		return domain.Message{}, flexerrors.ErrForbidden
	}
	if conv.IsArchived {
		return domain.Message{}, flexerrors.ErrGesprekGearchiveerd
	}

	msg := buildMessage(userID, in)
	for _, recipientID := range conv.ActiveParticipantIDs() {
		if recipientID == userID {
			continue
		}
		msg.Delivery[recipientID.String()] = domain.DeliveryReceipt{
			State:     domain.DeliverySent,
			UpdatedAt: msg.CreatedAt,
		}
	}

	if err := s.messages.Send(ctx, &msg); err != nil {
		return s.queueOffline(ctx, userID, in, err)
	}

	s.cacheMessage(msg)
	s.invalidateConversations(conv)
	return msg, nil
}

// queueOffline stores the message locally when the store write failed.
// Rule violations are not queued; only store unavailability is.
func (s *ChatService) queueOffline(ctx context.Context, userID uuid.UUID, in SendInput, cause error) (domain.Message, error) {
	if isRuleError(cause) {
		return domain.Message{}, cause
	}

	msg := buildMessage(userID, in)
	msg.Pending = true
	s.offline.Enqueue(msg)
	s.log.WithContext(ctx).Warn("message queued for offline sync")
	s.audit.Record(ctx, "offline.message.queued", userID, map[string]any{
		"conversation_id": in.ConversationID.String(),
	})
	return msg, flexerrors.ErrQueuedOffline
}

func buildMessage(senderID uuid.UUID, in SendInput) domain.Message {
	return domain.Message{
		ID:             uuid.New(),
		ConversationID: in.ConversationID,
		SenderID:       senderID,
		SenderName:     in.SenderName,
		Content:        in.Content,
		Type:           in.Type,
		Attachment:     in.Attachment,
		ReplyToID:      in.ReplyToID,
		Delivery:       make(map[string]domain.DeliveryReceipt),
		CreatedAt:      time.Now().UTC(),
	}
}

// EditMessage changes a message's content. Only the sender may edit,
// and only within the edit window after sending. Deleted messages
// cannot be edited.
func (s *ChatService) EditMessage(ctx context.Context, messageID uuid.UUID, content string) (domain.Message, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return domain.Message{}, err
	}
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, flexerrors.ErrInvalidInput
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if msg.SenderID != userID || msg.IsDeleted {
		return domain.Message{}, flexerrors.ErrGeenToestemming
	}
	now := time.Now().UTC()
	if now.Sub(msg.CreatedAt) > s.cfg.EditWindow {
		return domain.Message{}, flexerrors.ErrBewerkingstijdVerlopen
	}

	if err := s.messages.Edit(ctx, messageID, content, now); err != nil {
		return domain.Message{}, err
	}
	s.audit.Record(ctx, "message.edited", userID, map[string]any{
		"message_id":       messageID.String(),
		"previous_content": msg.Content,
		"new_content":      content,
	})
	return s.messages.GetByID(ctx, messageID)
}

// DeleteMessage removes a message. Soft deletion replaces the content
// with a placeholder and keeps the list position; hard deletion removes
// the document. Only the sender may delete.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID uuid.UUID, hard bool) error {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return err
	}
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return flexerrors.ErrGeenToestemming
	}

	if hard {
		err = s.messages.HardDelete(ctx, messageID)
	} else {
		err = s.messages.SoftDelete(ctx, messageID, time.Now().UTC())
	}
	if err != nil {
		return err
	}
	s.audit.Record(ctx, "message.deleted", userID, map[string]any{
		"message_id": messageID.String(),
		"hard":       hard,
	})
	return nil
}

// AddReaction adds an emoji reaction. Reacting twice with the same
// emoji is a no-op, not an error.
func (s *ChatService) AddReaction(ctx context.Context, messageID uuid.UUID, reaction string) error {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return err
	}
	if reaction == "" {
		return flexerrors.ErrInvalidInput
	}
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.requireParticipant(ctx, msg.ConversationID, userID); err != nil {
		return err
	}
	if msg.HasReaction(reaction) {
		return nil
	}
	return s.messages.AddReaction(ctx, messageID, reaction)
}

func (s *ChatService) RemoveReaction(ctx context.Context, messageID uuid.UUID, reaction string) error {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return err
	}
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if err := s.requireParticipant(ctx, msg.ConversationID, userID); err != nil {
		return err
	}
	if !msg.HasReaction(reaction) {
		return nil
	}
	return s.messages.RemoveReaction(ctx, messageID, reaction)
}

// MarkDelivered records that the caller's device received the message.
func (s *ChatService) MarkDelivered(ctx context.Context, messageID uuid.UUID) error {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return err
	}
	return s.messages.SetDeliveryState(ctx, messageID, userID, domain.DeliveryDelivered)
}

// MarkRead marks the given messages read for the caller and resets the
// conversation's unread counter. Read receipts never regress; marking
// an already-read message again is a no-op.
func (s *ChatService) MarkRead(ctx context.Context, conversationID uuid.UUID, messageIDs []uuid.UUID) error {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return err
	}
	for _, id := range messageIDs {
		if err := s.messages.SetDeliveryState(ctx, id, userID, domain.DeliveryRead); err != nil {
			return err
		}
	}
	return s.conversations.ResetUnread(ctx, conversationID, userID)
}

// SearchMessages finds non-deleted messages in a conversation matching
// the query, newest first.
func (s *ChatService) SearchMessages(ctx context.Context, conversationID uuid.UUID, query string) ([]domain.Message, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, flexerrors.ErrInvalidInput
	}
	return s.messages.Search(ctx, conversationID, query, s.cfg.MessageWindow)
}

// SetTyping flips the caller's typing indicator. The record expires
// server-side; a client that disappears mid-typing stops showing as
// typing once the TTL lapses.
func (s *ChatService) SetTyping(ctx context.Context, conversationID uuid.UUID, isTyping bool) error {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return err
	}
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.typing.SetTyping(ctx, conversationID, userID, isTyping)
}

func (s *ChatService) TypingUsers(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	return s.typing.TypingUsers(ctx, conversationID)
}

// ArchiveConversation archives or unarchives a conversation for all
// participants. Archived conversations leave the list but keep their
// history.
func (s *ChatService) ArchiveConversation(ctx context.Context, conversationID uuid.UUID, archived bool) error {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return err
	}
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return err
	}
	if err := s.conversations.SetArchived(ctx, conversationID, archived); err != nil {
		return err
	}
	s.convCache.Del(userID.String())
	s.audit.Record(ctx, "conversation.archived", userID, map[string]any{
		"conversation_id": conversationID.String(),
		"archived":        archived,
	})
	return nil
}

// MuteConversation mutes notifications for the caller only.
func (s *ChatService) MuteConversation(ctx context.Context, conversationID uuid.UUID, muted bool) error {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return err
	}
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.conversations.SetMuted(ctx, conversationID, userID, muted)
}

// WatchConversations streams full conversation-list snapshots for the
// caller. Each snapshot refreshes the read-through cache.
func (s *ChatService) WatchConversations(ctx context.Context) (<-chan []domain.Conversation, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	upstream, err := s.watcher.WatchUserConversations(ctx, userID, s.cfg.ConversationCap)
	if err != nil {
		return nil, err
	}

	out := make(chan []domain.Conversation, 1)
	go func() {
		defer close(out)
		for snapshot := range upstream {
			s.convCache.Set(userID.String(), snapshot)
			out <- snapshot
		}
	}()
	return out, nil
}

// WatchMessages streams full message-window snapshots for one
// conversation the caller participates in.
func (s *ChatService) WatchMessages(ctx context.Context, conversationID uuid.UUID) (<-chan []domain.Message, error) {
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}
	upstream, err := s.watcher.WatchMessages(ctx, conversationID, s.cfg.MessageWindow)
	if err != nil {
		return nil, err
	}

	out := make(chan []domain.Message, 1)
	go func() {
		defer close(out)
		for snapshot := range upstream {
			s.msgCache.Set(conversationID.String(), snapshot)
			out <- snapshot
		}
	}()
	return out, nil
}

// OfflineDepth reports how many messages await sync.
func (s *ChatService) OfflineDepth() int {
	return s.offline.Len()
}

// SyncOfflineMessages drains the offline queue once, on demand.
func (s *ChatService) SyncOfflineMessages(ctx context.Context) (SyncResult, error) {
	return s.offline.Sync(ctx, s.conversations, s.messages, s.audit)
}

func (s *ChatService) requireParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasActiveParticipant(userID) {
		return flexerrors.ErrForbidden
	}
	return nil
}

// cacheMessage prepends a freshly-sent message to the cached window so
// a follow-up read sees it before any watcher snapshot lands.
func (s *ChatService) cacheMessage(msg domain.Message) {
	key := msg.ConversationID.String()
	cached, err := s.msgCache.Get(key)
	if err != nil {
		return
	}
	window := append([]domain.Message{msg}, cached...)
	if len(window) > s.cfg.MessageWindow {
		window = window[:s.cfg.MessageWindow]
	}
	s.msgCache.Set(key, window)
}

func (s *ChatService) invalidateConversations(conv domain.Conversation) {
	for key := range conv.Participants {
		s.convCache.Del(key)
	}
}

// pendingNewestFirst reverses the oldest-first queue order to match the
// newest-first window order.
func pendingNewestFirst(pending []domain.Message) []domain.Message {
	for i, j := 0, len(pending)-1; i < j; i, j = i+1, j-1 {
		pending[i], pending[j] = pending[j], pending[i]
	}
	return pending
}

// isRuleError reports whether the error is a definitive rejection
// rather than infrastructure failure. Rejections are never queued; the
// store answered, it just said no.
func isRuleError(err error) bool {
	for _, rule := range []error{
		flexerrors.ErrNotFound,
		flexerrors.ErrForbidden,
		flexerrors.ErrInvalidInput,
		flexerrors.ErrGeenToestemming,
		flexerrors.ErrBewerkingstijdVerlopen,
		flexerrors.ErrGesprekGearchiveerd,
		flexerrors.ErrConflict,
	} {
		if errors.Is(err, rule) {
			return true
		}
	}
	return false
}
