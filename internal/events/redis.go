package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	// StreamKey is the Redis stream for trip events.
	StreamKey = "stream:trip_events"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000
)

// RedisStream appends events to a Redis stream.
type RedisStream struct {
	redis  *redis.Client
	stream string
}

// NewRedisStream creates a publisher writing to StreamKey.
func NewRedisStream(client *redis.Client) *RedisStream {
	return &RedisStream{redis: client, stream: StreamKey}
}

// Publish adds the event to the stream synchronously.
func (p *RedisStream) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: MaxStreamLen,
		Approx: true, // ~MAXLEN for performance
		ID:     "*",
		Values: map[string]interface{}{
			"type":    event.Type,
			"payload": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd: %w", err)
	}
	return nil
}
