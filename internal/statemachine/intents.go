package statemachine

import (
	"io"
	"time"

	"flexchat/internal/domain"
	flexerrors "flexchat/pkg/errors"

	"github.com/google/uuid"
)

// Intent is a user action fed into the chat state machine. Every intent
// names its type for dispatch and validates its own fields.
type Intent interface {
	IntentType() string
	Validate() error
}

type LoadConversationsIntent struct{}

func (LoadConversationsIntent) IntentType() string { return "chat.load_conversations" }
func (LoadConversationsIntent) Validate() error    { return nil }

type LoadMessagesIntent struct {
	ConversationID uuid.UUID
	Before         time.Time
}

func (LoadMessagesIntent) IntentType() string { return "chat.load_messages" }

func (i LoadMessagesIntent) Validate() error {
	if i.ConversationID == uuid.Nil {
		return flexerrors.ErrInvalidInput
	}
	return nil
}

type SendMessageIntent struct {
	ConversationID uuid.UUID
	Content        string
	Type           domain.MessageType
	Attachment     *domain.Attachment
	ReplyToID      *uuid.UUID
	SenderName     string
}

func (SendMessageIntent) IntentType() string { return "chat.send_message" }

func (i SendMessageIntent) Validate() error {
	if i.ConversationID == uuid.Nil {
		return flexerrors.ErrInvalidInput
	}
	if i.Content == "" && i.Attachment == nil {
		return flexerrors.ErrInvalidInput
	}
	return nil
}

type EditMessageIntent struct {
	MessageID uuid.UUID
	Content   string
}

func (EditMessageIntent) IntentType() string { return "chat.edit_message" }

func (i EditMessageIntent) Validate() error {
	if i.MessageID == uuid.Nil || i.Content == "" {
		return flexerrors.ErrInvalidInput
	}
	return nil
}

type DeleteMessageIntent struct {
	MessageID uuid.UUID
	Hard      bool
}

func (DeleteMessageIntent) IntentType() string { return "chat.delete_message" }

func (i DeleteMessageIntent) Validate() error {
	if i.MessageID == uuid.Nil {
		return flexerrors.ErrInvalidInput
	}
	return nil
}

type ReactIntent struct {
	MessageID uuid.UUID
	Reaction  string
	Remove    bool
}

func (ReactIntent) IntentType() string { return "chat.react" }

func (i ReactIntent) Validate() error {
	if i.MessageID == uuid.Nil || i.Reaction == "" {
		return flexerrors.ErrInvalidInput
	}
	return nil
}

type MarkReadIntent struct {
	ConversationID uuid.UUID
	MessageIDs     []uuid.UUID
}

func (MarkReadIntent) IntentType() string { return "chat.mark_read" }

func (i MarkReadIntent) Validate() error {
	if i.ConversationID == uuid.Nil || len(i.MessageIDs) == 0 {
		return flexerrors.ErrInvalidInput
	}
	return nil
}

type SetTypingIntent struct {
	ConversationID uuid.UUID
	IsTyping       bool
}

func (SetTypingIntent) IntentType() string { return "chat.set_typing" }

func (i SetTypingIntent) Validate() error {
	if i.ConversationID == uuid.Nil {
		return flexerrors.ErrInvalidInput
	}
	return nil
}

type ArchiveConversationIntent struct {
	ConversationID uuid.UUID
	Archived       bool
}

func (ArchiveConversationIntent) IntentType() string { return "chat.archive_conversation" }

func (i ArchiveConversationIntent) Validate() error {
	if i.ConversationID == uuid.Nil {
		return flexerrors.ErrInvalidInput
	}
	return nil
}

type SelectConversationIntent struct {
	ConversationID uuid.UUID
}

func (SelectConversationIntent) IntentType() string { return "chat.select_conversation" }

func (i SelectConversationIntent) Validate() error {
	if i.ConversationID == uuid.Nil {
		return flexerrors.ErrInvalidInput
	}
	return nil
}

type SearchMessagesIntent struct {
	ConversationID uuid.UUID
	Query          string
}

func (SearchMessagesIntent) IntentType() string { return "chat.search" }

func (i SearchMessagesIntent) Validate() error {
	if i.ConversationID == uuid.Nil || i.Query == "" {
		return flexerrors.ErrInvalidInput
	}
	return nil
}

// UploadAttachmentIntent carries the file stream; validation happens in
// the upload service, not here, because it needs the magic bytes.
type UploadAttachmentIntent struct {
	ConversationID uuid.UUID
	Category       string
	FileName       string
	SizeBytes      int64
	Body           io.Reader
}

func (UploadAttachmentIntent) IntentType() string { return "chat.upload_attachment" }

func (i UploadAttachmentIntent) Validate() error {
	if i.ConversationID == uuid.Nil || i.FileName == "" || i.Body == nil {
		return flexerrors.ErrInvalidInput
	}
	return nil
}

type SyncOfflineIntent struct{}

func (SyncOfflineIntent) IntentType() string { return "chat.sync_offline" }
func (SyncOfflineIntent) Validate() error    { return nil }

type ExportDataIntent struct{}

func (ExportDataIntent) IntentType() string { return "gdpr.export" }
func (ExportDataIntent) Validate() error    { return nil }

type EraseDataIntent struct{}

func (EraseDataIntent) IntentType() string { return "gdpr.erase" }
func (EraseDataIntent) Validate() error    { return nil }
