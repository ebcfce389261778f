package statemachine

import (
	"context"
	"errors"
	"sync"
	"time"

	"flexchat/internal/services"
	flexerrors "flexchat/pkg/errors"
	"flexchat/pkg/logger"
)

// HandlerFunc executes one intent and returns the resulting state.
type HandlerFunc func(ctx context.Context, intent Intent) (State, error)

// Machine dispatches chat intents to registered handlers and emits
// states. Handlers run sequentially per Dispatch call; concurrency is
// the caller's choice, the registry itself is safe for concurrent use.
type Machine struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	depth    func() int
	log      *logger.Logger
}

func New(log *logger.Logger) *Machine {
	return &Machine{
		handlers: make(map[string]HandlerFunc),
		log:      log,
	}
}

func (m *Machine) Register(intentType string, handler HandlerFunc) {
	m.mu.Lock()
	m.handlers[intentType] = handler
	m.mu.Unlock()
}

// SetOfflineDepth wires the queue-depth probe used by ChatOfflineState.
func (m *Machine) SetOfflineDepth(depth func() int) {
	m.depth = depth
}

func (m *Machine) offlineDepth() int {
	if m.depth == nil {
		return 0
	}
	return m.depth()
}

// Dispatch validates and executes one intent. Failures come back as an
// ErrorState, never a bare error, so every intent yields a state.
func (m *Machine) Dispatch(ctx context.Context, intent Intent) State {
	if err := intent.Validate(); err != nil {
		return ErrorState{Err: err, Recoverable: true}
	}

	m.mu.RLock()
	handler, ok := m.handlers[intent.IntentType()]
	m.mu.RUnlock()
	if !ok {
		return ErrorState{Err: flexerrors.ErrInvalidInput, Recoverable: false}
	}

	state, err := handler(ctx, intent)
	if err != nil {
		m.log.WithContext(ctx).Warn("intent failed: " + intent.IntentType())
		return ErrorState{Err: err, Recoverable: recoverable(err)}
	}
	return state
}

// Run consumes intents until the channel closes or the context ends,
// emitting one or more states per intent (a loading state first where
// the operation warrants one).
func (m *Machine) Run(ctx context.Context, intents <-chan Intent) <-chan State {
	states := make(chan State, 8)
	go func() {
		defer close(states)
		emit(ctx, states, InitialState{})
		for {
			select {
			case <-ctx.Done():
				return
			case intent, ok := <-intents:
				if !ok {
					return
				}
				if loading := loadingStateFor(intent); loading != nil {
					emit(ctx, states, loading)
				}
				state := m.Dispatch(ctx, intent)
				emit(ctx, states, state)
				if sent, ok := state.(MessageSentState); ok && sent.Queued {
					emit(ctx, states, ChatOfflineState{QueuedMessages: m.offlineDepth()})
				}
			}
		}
	}()
	return states
}

func emit(ctx context.Context, states chan<- State, state State) {
	select {
	case states <- state:
	case <-ctx.Done():
	}
}

func loadingStateFor(intent Intent) State {
	switch i := intent.(type) {
	case LoadConversationsIntent:
		return ConversationsLoadingState{}
	case LoadMessagesIntent:
		return MessagesLoadingState{ConversationID: i.ConversationID}
	case SelectConversationIntent:
		return MessagesLoadingState{ConversationID: i.ConversationID}
	case UploadAttachmentIntent:
		return FileUploadingState{ConversationID: i.ConversationID, FileName: i.FileName}
	case SyncOfflineIntent:
		return OfflineSyncingState{}
	case SendMessageIntent:
		return MessageSendingState{ConversationID: i.ConversationID}
	case ExportDataIntent:
		return ExportingState{}
	case EraseDataIntent:
		return ErasingState{}
	}
	return nil
}

// recoverable classifies a failure: rule rejections and store outages
// leave the machine usable, a missing identity does not.
func recoverable(err error) bool {
	return !errors.Is(err, flexerrors.ErrUnauthorized)
}

// NewChatMachine wires the default handler set over the chat, upload
// and GDPR services.
func NewChatMachine(chat *services.ChatService, gdpr services.Compliance, uploads *services.UploadService, log *logger.Logger) *Machine {
	m := New(log)
	m.SetOfflineDepth(chat.OfflineDepth)

	m.Register(LoadConversationsIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		list, err := chat.GetConversations(ctx)
		if err != nil {
			return nil, err
		}
		return ConversationsLoadedState{Conversations: list.Conversations, Stale: list.Stale}, nil
	})

	m.Register(LoadMessagesIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		i := intent.(LoadMessagesIntent)
		window, err := chat.GetMessages(ctx, i.ConversationID, i.Before)
		if err != nil {
			return nil, err
		}
		typing, _ := chat.TypingUsers(ctx, i.ConversationID)
		return MessagesLoadedState{ConversationID: i.ConversationID, Window: window, TypingUsers: typing}, nil
	})

	m.Register(SelectConversationIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		i := intent.(SelectConversationIntent)
		window, err := chat.GetMessages(ctx, i.ConversationID, time.Time{})
		if err != nil {
			return nil, err
		}
		typing, _ := chat.TypingUsers(ctx, i.ConversationID)
		return ConversationSelectedState{ConversationID: i.ConversationID, Window: window, TypingUsers: typing}, nil
	})

	m.Register(SearchMessagesIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		i := intent.(SearchMessagesIntent)
		results, err := chat.SearchMessages(ctx, i.ConversationID, i.Query)
		if err != nil {
			return nil, err
		}
		return SearchResultsLoadedState{ConversationID: i.ConversationID, Query: i.Query, Results: results}, nil
	})

	m.Register(UploadAttachmentIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		i := intent.(UploadAttachmentIntent)
		att, err := uploads.Upload(ctx, i.ConversationID, services.FileCategory(i.Category), i.FileName, i.SizeBytes, i.Body)
		if err != nil {
			return nil, err
		}
		return FileUploadedState{ConversationID: i.ConversationID, Attachment: *att}, nil
	})

	m.Register(SendMessageIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		i := intent.(SendMessageIntent)
		msg, err := chat.SendMessage(ctx, services.SendInput{
			ConversationID: i.ConversationID,
			Content:        i.Content,
			Type:           i.Type,
			Attachment:     i.Attachment,
			ReplyToID:      i.ReplyToID,
			SenderName:     i.SenderName,
		})
		if errors.Is(err, flexerrors.ErrQueuedOffline) {
			return MessageSentState{Message: msg, Queued: true}, nil
		}
		if err != nil {
			return nil, err
		}
		return MessageSentState{Message: msg}, nil
	})

	m.Register(EditMessageIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		i := intent.(EditMessageIntent)
		msg, err := chat.EditMessage(ctx, i.MessageID, i.Content)
		if err != nil {
			return nil, err
		}
		return MessageEditedState{Message: msg}, nil
	})

	m.Register(DeleteMessageIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		i := intent.(DeleteMessageIntent)
		if err := chat.DeleteMessage(ctx, i.MessageID, i.Hard); err != nil {
			return nil, err
		}
		return MessageDeletedState{MessageID: i.MessageID}, nil
	})

	m.Register(ReactIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		i := intent.(ReactIntent)
		var err error
		if i.Remove {
			err = chat.RemoveReaction(ctx, i.MessageID, i.Reaction)
		} else {
			err = chat.AddReaction(ctx, i.MessageID, i.Reaction)
		}
		if err != nil {
			return nil, err
		}
		return ReactionUpdatedState{MessageID: i.MessageID, Reaction: i.Reaction, Removed: i.Remove}, nil
	})

	m.Register(MarkReadIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		i := intent.(MarkReadIntent)
		if err := chat.MarkRead(ctx, i.ConversationID, i.MessageIDs); err != nil {
			return nil, err
		}
		return ReadMarkedState{ConversationID: i.ConversationID, Count: len(i.MessageIDs)}, nil
	})

	m.Register(SetTypingIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		i := intent.(SetTypingIntent)
		if err := chat.SetTyping(ctx, i.ConversationID, i.IsTyping); err != nil {
			return nil, err
		}
		return TypingChangedState{ConversationID: i.ConversationID, IsTyping: i.IsTyping}, nil
	})

	m.Register(ArchiveConversationIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		i := intent.(ArchiveConversationIntent)
		if err := chat.ArchiveConversation(ctx, i.ConversationID, i.Archived); err != nil {
			return nil, err
		}
		return ConversationArchivedState{ConversationID: i.ConversationID, Archived: i.Archived}, nil
	})

	m.Register(SyncOfflineIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		result, err := chat.SyncOfflineMessages(ctx)
		if err != nil {
			return nil, err
		}
		return OfflineSyncedState{Result: result}, nil
	})

	m.Register(ExportDataIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		userID, err := services.UserIDFromContext(ctx)
		if err != nil {
			return nil, err
		}
		export, err := gdpr.ExportUserData(ctx, userID)
		if err != nil {
			return nil, err
		}
		return ExportedState{Export: export}, nil
	})

	m.Register(EraseDataIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		userID, err := services.UserIDFromContext(ctx)
		if err != nil {
			return nil, err
		}
		erased, err := gdpr.EraseUserData(ctx, userID)
		if err != nil {
			return nil, err
		}
		return ErasedState{MessagesErased: erased}, nil
	})

	return m
}
