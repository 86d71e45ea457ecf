package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/armin-soft/Fit-Master-sub001/domain"
)

// RedisEventPublisher implements domain.EventPublisher on Redis pub/sub.
// Every client has its own channel so that all views of the client hear
// about a logout.
type RedisEventPublisher struct {
	client *redis.Client
}

// NewRedisEventPublisher creates a new Redis event publisher
func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{client: client}
}

// EventChannel returns the channel the events of clientID are published on
func EventChannel(clientID string) string {
	return fmt.Sprintf("auth:events:%s", clientID)
}

// Publish implements domain.EventPublisher
func (p *RedisEventPublisher) Publish(ctx context.Context, event *domain.AuthEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal auth event: %w", err)
	}
	if err := p.client.Publish(ctx, EventChannel(event.ClientID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish auth event: %w", err)
	}
	return nil
}

// Subscribe delivers the events of clientID until ctx is done. Messages that
// are not auth events are skipped.
func (p *RedisEventPublisher) Subscribe(ctx context.Context, clientID string) (<-chan *domain.AuthEvent, error) {
	sub := p.client.Subscribe(ctx, EventChannel(clientID))
	// wait for the subscription to be confirmed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to auth events: %w", err)
	}

	out := make(chan *domain.AuthEvent)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event domain.AuthEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case out <- &event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
