package statemachine

import (
	"context"
	"errors"
	"testing"

	flexerrors "flexchat/pkg/errors"
	"flexchat/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneState struct{}

func (doneState) StateType() string { return "done" }

func TestDispatchRunsRegisteredHandler(t *testing.T) {
	m := New(logger.NewNop())
	m.Register(LoadConversationsIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		return doneState{}, nil
	})

	state := m.Dispatch(context.Background(), LoadConversationsIntent{})
	assert.Equal(t, "done", state.StateType())
}

func TestDispatchUnknownIntent(t *testing.T) {
	m := New(logger.NewNop())

	state := m.Dispatch(context.Background(), LoadConversationsIntent{})
	errState, ok := state.(ErrorState)
	require.True(t, ok)
	assert.False(t, errState.Recoverable)
}

func TestDispatchValidatesBeforeHandling(t *testing.T) {
	m := New(logger.NewNop())
	called := false
	m.Register(LoadMessagesIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		called = true
		return doneState{}, nil
	})

	state := m.Dispatch(context.Background(), LoadMessagesIntent{})
	errState, ok := state.(ErrorState)
	require.True(t, ok)
	assert.ErrorIs(t, errState.Err, flexerrors.ErrInvalidInput)
	assert.False(t, called)
}

func TestDispatchClassifiesErrors(t *testing.T) {
	m := New(logger.NewNop())

	m.Register(SyncOfflineIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		return nil, flexerrors.ErrStoreUnavailable
	})
	state := m.Dispatch(context.Background(), SyncOfflineIntent{})
	errState, ok := state.(ErrorState)
	require.True(t, ok)
	assert.True(t, errState.Recoverable)

	m.Register(SyncOfflineIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		return nil, flexerrors.ErrUnauthorized
	})
	state = m.Dispatch(context.Background(), SyncOfflineIntent{})
	errState, ok = state.(ErrorState)
	require.True(t, ok)
	assert.False(t, errState.Recoverable)
}

func TestRunEmitsLoadingThenResult(t *testing.T) {
	m := New(logger.NewNop())
	m.Register(LoadConversationsIntent{}.IntentType(), func(ctx context.Context, intent Intent) (State, error) {
		return doneState{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	intents := make(chan Intent, 1)
	states := m.Run(ctx, intents)

	assert.Equal(t, "initial", (<-states).StateType())

	intents <- LoadConversationsIntent{}
	assert.Equal(t, "conversations.loading", (<-states).StateType())
	assert.Equal(t, "done", (<-states).StateType())

	close(intents)
	_, open := <-states
	assert.False(t, open)
}

func TestIntentValidation(t *testing.T) {
	assert.NoError(t, LoadConversationsIntent{}.Validate())
	assert.Error(t, SendMessageIntent{}.Validate())
	assert.Error(t, SendMessageIntent{ConversationID: uuid.New()}.Validate())
	assert.NoError(t, SendMessageIntent{ConversationID: uuid.New(), Content: "hoi"}.Validate())
	assert.Error(t, EditMessageIntent{MessageID: uuid.New()}.Validate())
	assert.Error(t, MarkReadIntent{ConversationID: uuid.New()}.Validate())
	assert.NoError(t, MarkReadIntent{ConversationID: uuid.New(), MessageIDs: []uuid.UUID{uuid.New()}}.Validate())
}

func TestErrorStateMessage(t *testing.T) {
	assert.Equal(t, "kapot", ErrorState{Err: errors.New("kapot")}.Error())
	assert.Equal(t, "unknown error", ErrorState{}.Error())
}
