package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/herfa/marketplace-api/internal/core/ports"
)

// EventChannel is the Pub/Sub channel every API instance listens on.
const EventChannel = "marketplace:events"

// Sink receives events decoded from the channel, typically the local
// realtime hub.
type Sink interface {
	SendToUser(userID string, ev ports.RealtimeEvent)
}

type envelope struct {
	UserID string          `json:"user_id"`
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
}

// EventBus bridges realtime events between API instances over Redis Pub/Sub.
type EventBus struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewEventBus(client *redis.Client, log zerolog.Logger) *EventBus {
	return &EventBus{client: client, log: log}
}

// Publish implements ports.EventPublisher.
func (b *EventBus) Publish(ctx context.Context, userID string, ev ports.RealtimeEvent) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("encode event data: %w", err)
	}
	msg, err := json.Marshal(envelope{UserID: userID, Type: ev.Type, Data: data})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, EventChannel, msg).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Run forwards every message on EventChannel to sink until ctx is cancelled.
func (b *EventBus) Run(ctx context.Context, sink Sink) error {
	sub := b.client.Subscribe(ctx, EventChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", EventChannel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.Warn().Err(err).Msg("dropping malformed realtime event")
				continue
			}
			sink.SendToUser(env.UserID, ports.RealtimeEvent{Type: env.Type, Data: env.Data})
		}
	}
}
