package websocket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainUntilClosed(t *testing.T, ch <-chan []byte) {
	t.Helper()
	for {
		select {
		case _, open := <-ch:
			if !open {
				return
			}
		case <-time.After(time.Second):
			t.Fatal("send channel never closed")
		}
	}
}

func TestSendConcurrentWithCloseDoesNotPanic(t *testing.T) {
	client := NewClient(nil, uuid.New())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			client.Send([]byte("snapshot"))
		}
	}()

	client.Close()
	wg.Wait()

	client.Send([]byte("late snapshot"))
	drainUntilClosed(t, client.send)
}

func TestCloseIsIdempotent(t *testing.T) {
	client := NewClient(nil, uuid.New())
	client.Close()
	client.Close()
	drainUntilClosed(t, client.send)
}

func TestCloseCancelsWatches(t *testing.T) {
	client := NewClient(nil, uuid.New())
	ctx, cancel := context.WithCancel(context.Background())
	client.trackWatch(uuid.New(), cancel)

	client.Close()

	select {
	case <-ctx.Done():
	default:
		t.Fatal("watch context not cancelled")
	}
}

func TestUnregisterWhileWatchersStillSending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	userID := uuid.New()
	client := NewClient(nil, userID)
	hub.Register(client)
	require.Eventually(t, func() bool {
		return hub.ConnectionCount(userID) == 1
	}, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10000; i++ {
			client.Send([]byte("snapshot"))
		}
	}()

	hub.Unregister(client)
	<-done

	require.Eventually(t, func() bool {
		return hub.ConnectionCount(userID) == 0
	}, time.Second, time.Millisecond)
	assert.NotPanics(t, func() { client.Send([]byte("after disconnect")) })
}
