package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskPurgeRefreshTokens = "auth:purge_refresh_tokens"
)

type purgePayload struct {
	// Before overrides the cutoff; zero means the time the task runs.
	Before time.Time `json:"before,omitempty"`
}

// NewPurgeRefreshTokensTask builds the task that deletes expired refresh
// tokens. A zero before purges everything expired when the task runs.
func NewPurgeRefreshTokensTask(before time.Time, opts ...asynq.Option) (*asynq.Task, error) {
	payload, err := json.Marshal(purgePayload{Before: before})
	if err != nil {
		return nil, err
	}
	opts = append([]asynq.Option{
		asynq.MaxRetry(3),
		asynq.Timeout(time.Minute),
		asynq.Retention(24 * time.Hour),
	}, opts...)
	return asynq.NewTask(TaskPurgeRefreshTokens, payload, opts...), nil
}

// Client enqueues one-off jobs.
type Client struct {
	client *asynq.Client
}

// NewClient connects to the Redis instance behind redisURL.
func NewClient(redisURL string) (*Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &Client{client: asynq.NewClient(opt)}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueuePurgeRefreshTokens asks a worker to purge expired refresh tokens now.
func (c *Client) EnqueuePurgeRefreshTokens() (string, error) {
	task, err := NewPurgeRefreshTokensTask(time.Time{})
	if err != nil {
		return "", err
	}
	info, err := c.client.Enqueue(task)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue %s: %w", TaskPurgeRefreshTokens, err)
	}
	return info.ID, nil
}
