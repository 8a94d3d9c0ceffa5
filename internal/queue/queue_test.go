package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrychef/backend/internal/service"
)

func newTestQueue(t *testing.T) *RedisQueue {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisQueue(client)
}

func TestRedisQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("enqueue fills in defaults", func(t *testing.T) {
		q := newTestQueue(t)

		task := &Task{Ingredients: []string{"egg"}}
		require.NoError(t, q.Enqueue(ctx, task))

		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, 1, task.Attempt)
		assert.False(t, task.EnqueuedAt.IsZero())
	})

	t.Run("tasks round trip in FIFO order", func(t *testing.T) {
		q := newTestQueue(t)

		userID := uuid.New()
		first := &Task{
			Ingredients: []string{"chicken", "rice"},
			Options:     service.GenerationOptions{Cuisine: "Thai", Servings: 4},
			UserID:      &userID,
			RequestID:   "req-1",
		}
		second := &Task{Ingredients: []string{"egg"}, RequestID: "req-2"}
		require.NoError(t, q.Enqueue(ctx, first))
		require.NoError(t, q.Enqueue(ctx, second))

		length, err := q.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), length)

		got, err := q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, []string{"chicken", "rice"}, got.Ingredients)
		assert.Equal(t, "Thai", got.Options.Cuisine)
		require.NotNil(t, got.UserID)
		assert.Equal(t, userID, *got.UserID)

		got, err = q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "req-2", got.RequestID)
	})

	t.Run("empty queue times out with no task", func(t *testing.T) {
		q := newTestQueue(t)

		got, err := q.Dequeue(ctx, 100*time.Millisecond)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestTaskRequest(t *testing.T) {
	userID := uuid.New()
	task := &Task{
		ID:          uuid.New(),
		Ingredients: []string{"egg", "rice"},
		Options:     service.GenerationOptions{Difficulty: "easy"},
		UserID:      &userID,
		RequestID:   "req-9",
		Attempt:     2,
	}

	req := task.Request()
	assert.Equal(t, task.Ingredients, req.Ingredients)
	assert.Equal(t, task.Options, req.Options)
	assert.Equal(t, &userID, req.UserID)
	assert.Equal(t, "req-9", req.RequestID)
}
