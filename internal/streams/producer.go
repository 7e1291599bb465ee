package streams

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventPublisher is what handlers need to emit activity events.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) (string, error)
}

// Publisher publishes activity events to Redis Streams
type Publisher struct {
	rdb    *redis.Client
	maxLen int64
}

// NewPublisher creates a new Publisher on an existing client
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb, maxLen: 10000}
}

// Publish appends an event to the activity stream and returns its stream ID.
// Missing ID and timestamp are filled in.
func (p *Publisher) Publish(ctx context.Context, e Event) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event: %w", err)
	}

	result := p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamActivity,
		MaxLen: p.maxLen,
		Approx: true,
		ID:     "*", // auto-generate ID
		Values: map[string]interface{}{
			"type":           e.Type,
			"payload":        string(payload),
			"published_at":   time.Now().Unix(),
			"schema_version": SchemaVersionV1,
		},
	})

	if result.Err() != nil {
		return "", fmt.Errorf("failed to publish to stream: %w", result.Err())
	}

	return result.Val(), nil
}

// Nop drops every event. It stands in when no Redis is configured.
type Nop struct{}

// Publish implements EventPublisher.
func (Nop) Publish(context.Context, Event) (string, error) { return "", nil }

// Emit publishes e and logs failures. Activity events are best effort and
// never fail the request that produced them.
func Emit(ctx context.Context, p EventPublisher, e Event) {
	if p == nil {
		return
	}
	if _, err := p.Publish(ctx, e); err != nil {
		slog.Warn("Failed to publish activity event", "type", e.Type, "user_id", e.UserID, "error", err)
	}
}
