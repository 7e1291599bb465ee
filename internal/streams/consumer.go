package streams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Consumer reads activity events from Redis Streams as part of a group
type Consumer struct {
	rdb          *redis.Client
	groupName    string
	consumerName string
	block        time.Duration
}

// NewConsumer creates the consumer group if needed and returns a Consumer.
func NewConsumer(ctx context.Context, rdb *redis.Client, consumerName string) (*Consumer, error) {
	// Start ID "0" means read from beginning if group is new
	err := rdb.XGroupCreateMkStream(ctx, StreamActivity, GroupActivityWorkers, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}
	// Ignore BUSYGROUP error - group already exists

	return &Consumer{
		rdb:          rdb,
		groupName:    GroupActivityWorkers,
		consumerName: consumerName,
		block:        5 * time.Second,
	}, nil
}

// Consume runs a blocking loop handing events to handler until ctx is done.
// Messages whose handler fails stay pending for redelivery.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, Event) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupName,
			Consumer: c.consumerName,
			Streams:  []string{StreamActivity, ">"},
			Count:    10,
			Block:    c.block,
		}).Result()

		if errors.Is(err, redis.Nil) {
			// No messages available, continue loop
			continue
		}

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Blocking reads return a timeout when no messages arrive
			// within the Block duration; this is normal, not an error.
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			slog.Error("Failed to read from stream", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				c.process(ctx, message, handler)
			}
		}
	}
}

func (c *Consumer) process(ctx context.Context, message redis.XMessage, handler func(context.Context, Event) error) {
	payload, ok := message.Values["payload"].(string)
	if !ok {
		slog.Error("Invalid message payload", "message_id", message.ID)
		c.ack(ctx, message.ID)
		return
	}

	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		slog.Error("Failed to unmarshal event", "error", err, "message_id", message.ID)
		c.ack(ctx, message.ID)
		return
	}

	if err := handler(ctx, event); err != nil {
		slog.Error("Handler failed", "error", err, "event_id", event.ID)
		// Message stays in PEL for retry, don't ACK
		return
	}
	c.ack(ctx, message.ID)
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.rdb.XAck(ctx, StreamActivity, c.groupName, id).Err(); err != nil {
		slog.Error("Failed to ACK message", "error", err, "message_id", id)
	}
}

// StartConsumer starts the activity consumer in a background goroutine and
// returns a stop function
func StartConsumer(rdb *redis.Client, consumerName string, handler func(context.Context, Event) error) (stop func(), err error) {
	ctx, cancel := context.WithCancel(context.Background())

	consumer, err := NewConsumer(ctx, rdb, consumerName)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create activity consumer: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Consume(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Activity consumer stopped with error", "error", err)
		}
	}()

	slog.Info("Activity consumer started", "consumer", consumerName)

	return func() {
		cancel()
		<-done
	}, nil
}
