package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pantrychef/backend/internal/service"
)

// generationQueueKey is the Redis list holding pending generation tasks
const generationQueueKey = "queue:generation"

// Task is one queued generation attempt. Attempt counts are carried on the
// descriptor so a restarted worker resumes with the right budget.
type Task struct {
	ID          uuid.UUID                 `json:"id"`
	Ingredients []string                  `json:"ingredients"`
	Options     service.GenerationOptions `json:"options"`
	UserID      *uuid.UUID                `json:"user_id"`
	RequestID   string                    `json:"request_id"`
	Attempt     int                       `json:"attempt"`
	EnqueuedAt  time.Time                 `json:"enqueued_at"`
}

// Request converts the task back into a pipeline request
func (t *Task) Request() service.GenerationRequest {
	return service.GenerationRequest{
		Ingredients: t.Ingredients,
		Options:     t.Options,
		UserID:      t.UserID,
		RequestID:   t.RequestID,
	}
}

// RetryConfig bounds retries of transient failures for queued tasks
type RetryConfig struct {
	MaxAttempts int
	Timeout     time.Duration
	Backoff     time.Duration
}

// DefaultRetryConfig matches the generation pipeline's policy: three
// attempts, two minutes each, linear backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Timeout:     2 * time.Minute,
		Backoff:     time.Second,
	}
}

// RedisQueue is a Redis-list-backed task queue
type RedisQueue struct {
	redis *redis.Client
}

// NewRedisQueue creates a new RedisQueue instance
func NewRedisQueue(redisClient *redis.Client) *RedisQueue {
	return &RedisQueue{redis: redisClient}
}

// Enqueue pushes a task onto the queue
func (q *RedisQueue) Enqueue(ctx context.Context, task *Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now()
	}
	if task.Attempt == 0 {
		task.Attempt = 1
	}

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if err := q.redis.LPush(ctx, generationQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// Dequeue blocks for up to the given timeout waiting for a task. A nil
// task with nil error means the wait timed out.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	result, err := q.redis.BRPop(ctx, timeout, generationQueueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue task: %w", err)
	}

	// BRPop returns [key, value]
	var task Task
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// Len returns the number of pending tasks
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.redis.LLen(ctx, generationQueueKey).Result()
}
