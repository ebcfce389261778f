package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// Publisher is the write half of the event bus.
type Publisher interface {
	Publish(ctx context.Context, channel string, env Envelope) error
}

// Subscriber is the read half. Subscribe blocks until ctx is cancelled or
// the connection fails; handlers run on the subscriber goroutine.
type Subscriber interface {
	Subscribe(ctx context.Context, patterns []string, handler func(channel string, env Envelope)) error
}

// RedisBus implements both halves over Redis pub/sub.
type RedisBus struct {
	client *redis.Client
}

func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

func (b *RedisBus) Publish(ctx context.Context, channel string, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel, data).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, patterns []string, handler func(channel string, env Envelope)) error {
	sub := b.client.PSubscribe(ctx, patterns...)
	defer sub.Close()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		var env Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			continue
		}
		handler(msg.Channel, env)
	}
}
