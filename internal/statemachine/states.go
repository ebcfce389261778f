package statemachine

import (
	"flexchat/internal/domain"
	"flexchat/internal/services"

	"github.com/google/uuid"
)

// State is one externally-visible condition of the chat machine. States
// are values; the machine never mutates an emitted state.
type State interface {
	StateType() string
}

type InitialState struct{}

func (InitialState) StateType() string { return "initial" }

type ConversationsLoadingState struct{}

func (ConversationsLoadingState) StateType() string { return "conversations.loading" }

// ConversationsLoadedState carries the full list; Stale means it came
// from cache while the store was unreachable.
type ConversationsLoadedState struct {
	Conversations []domain.Conversation
	Stale         bool
}

func (ConversationsLoadedState) StateType() string { return "conversations.loaded" }

type MessagesLoadingState struct {
	ConversationID uuid.UUID
}

func (MessagesLoadingState) StateType() string { return "messages.loading" }

type MessagesLoadedState struct {
	ConversationID uuid.UUID
	Window         services.MessageWindow
	TypingUsers    []uuid.UUID
}

func (MessagesLoadedState) StateType() string { return "messages.loaded" }

// ConversationSelectedState is the opening view of one conversation:
// the current window plus who is typing right now.
type ConversationSelectedState struct {
	ConversationID uuid.UUID
	Window         services.MessageWindow
	TypingUsers    []uuid.UUID
}

func (ConversationSelectedState) StateType() string { return "conversation.selected" }

type SearchResultsLoadedState struct {
	ConversationID uuid.UUID
	Query          string
	Results        []domain.Message
}

func (SearchResultsLoadedState) StateType() string { return "search.results_loaded" }

type FileUploadingState struct {
	ConversationID uuid.UUID
	FileName       string
}

func (FileUploadingState) StateType() string { return "file.uploading" }

type FileUploadedState struct {
	ConversationID uuid.UUID
	Attachment     domain.Attachment
}

func (FileUploadedState) StateType() string { return "file.uploaded" }

type MessageSendingState struct {
	ConversationID uuid.UUID
}

func (MessageSendingState) StateType() string { return "message.sending" }

// MessageSentState is emitted for both delivered and offline-queued
// sends; Queued distinguishes them.
type MessageSentState struct {
	Message domain.Message
	Queued  bool
}

func (MessageSentState) StateType() string { return "message.sent" }

type MessageEditedState struct {
	Message domain.Message
}

func (MessageEditedState) StateType() string { return "message.edited" }

type MessageDeletedState struct {
	MessageID uuid.UUID
}

func (MessageDeletedState) StateType() string { return "message.deleted" }

type ReactionUpdatedState struct {
	MessageID uuid.UUID
	Reaction  string
	Removed   bool
}

func (ReactionUpdatedState) StateType() string { return "message.reaction_updated" }

type ReadMarkedState struct {
	ConversationID uuid.UUID
	Count          int
}

func (ReadMarkedState) StateType() string { return "messages.read_marked" }

type TypingChangedState struct {
	ConversationID uuid.UUID
	IsTyping       bool
}

func (TypingChangedState) StateType() string { return "typing.changed" }

type ConversationArchivedState struct {
	ConversationID uuid.UUID
	Archived       bool
}

func (ConversationArchivedState) StateType() string { return "conversation.archived" }

type OfflineSyncingState struct{}

func (OfflineSyncingState) StateType() string { return "offline.syncing" }

type OfflineSyncedState struct {
	Result services.SyncResult
}

func (OfflineSyncedState) StateType() string { return "offline.synced" }

// ChatOfflineState signals that the store is unreachable and writes
// are being queued. Emitted alongside the queued MessageSentState.
type ChatOfflineState struct {
	QueuedMessages int
}

func (ChatOfflineState) StateType() string { return "chat.offline" }

type ExportingState struct{}

func (ExportingState) StateType() string { return "gdpr.exporting" }

type ExportedState struct {
	Export domain.ChatDataExport
}

func (ExportedState) StateType() string { return "gdpr.exported" }

type ErasingState struct{}

func (ErasingState) StateType() string { return "gdpr.erasing" }

type ErasedState struct {
	MessagesErased int64
}

func (ErasedState) StateType() string { return "gdpr.erased" }

// ErrorState wraps a failed intent. Recoverable errors leave the
// machine usable; the previous loaded state remains valid.
type ErrorState struct {
	Err         error
	Recoverable bool
}

func (ErrorState) StateType() string { return "error" }

func (e ErrorState) Error() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}
