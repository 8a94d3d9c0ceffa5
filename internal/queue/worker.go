package queue

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/pantrychef/backend/internal/model"
	"github.com/pantrychef/backend/internal/service"
)

// GenerationRunner is the pipeline entry point used by the worker;
// implemented by service.Generator
type GenerationRunner interface {
	Run(ctx context.Context, req service.GenerationRequest) (*model.Recipe, error)
}

// Worker pulls generation tasks off the queue and executes them with
// bounded retry. Only transport-class failures are retried; a payload that
// failed validation would fail again, so it is terminal.
type Worker struct {
	queue     *RedisQueue
	generator GenerationRunner
	retry     RetryConfig

	// OnPermanentFailure fires after retries are exhausted or a terminal
	// failure occurs. Optional.
	OnPermanentFailure func(task *Task, err error)

	// sleep is swappable in tests to avoid real backoff waits
	sleep func(time.Duration)
}

// NewWorker creates a new Worker instance
func NewWorker(q *RedisQueue, generator GenerationRunner, retry RetryConfig) *Worker {
	return &Worker{
		queue:     q,
		generator: generator,
		retry:     retry,
		sleep:     time.Sleep,
	}
}

// Start processes tasks until the context is canceled. Each worker handles
// one task at a time; run multiple workers for concurrency.
func (w *Worker) Start(ctx context.Context) {
	log.Printf("[Worker] started, max %d attempts per task", w.retry.MaxAttempts)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[Worker] stopping: %v", ctx.Err())
			return
		default:
		}

		task, err := w.queue.Dequeue(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[Worker] dequeue failed: %v", err)
			w.sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		w.Process(ctx, task)
	}
}

// Process runs one task to completion, retrying transient failures
// sequentially up to the attempt budget
func (w *Worker) Process(ctx context.Context, task *Task) {
	req := task.Request()

	for attempt := task.Attempt; attempt <= w.retry.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, w.retry.Timeout)
		_, err := w.generator.Run(attemptCtx, req)
		cancel()

		if err == nil {
			log.Printf("[Worker] task %s succeeded on attempt %d", task.ID, attempt)
			return
		}

		if !isTransient(err) {
			log.Printf("[Worker] task %s failed terminally on attempt %d: %v", task.ID, attempt, err)
			w.permanentFailure(task, err)
			return
		}

		if attempt == w.retry.MaxAttempts {
			log.Printf("[Worker] task %s exhausted %d attempts: %v", task.ID, attempt, err)
			w.permanentFailure(task, err)
			return
		}

		backoff := time.Duration(attempt) * w.retry.Backoff
		log.Printf("[Worker] task %s attempt %d failed (%v), retrying in %v", task.ID, attempt, err, backoff)
		w.sleep(backoff)
	}
}

func (w *Worker) permanentFailure(task *Task, err error) {
	if w.OnPermanentFailure != nil {
		w.OnPermanentFailure(task, err)
	}
}

// isTransient reports whether an error class is worth retrying. Inference
// transport failures (including timeouts) are; validation and quota
// failures are not.
func isTransient(err error) bool {
	var infErr *service.InferenceError
	return errors.As(err, &infErr)
}
