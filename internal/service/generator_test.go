package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pantrychef/backend/internal/model"
)

type stubInference struct {
	payload  json.RawMessage
	err      error
	calls    int
	generate func(ctx context.Context) (json.RawMessage, error)
}

func (s *stubInference) Model() string { return "test-model" }

func (s *stubInference) GenerateRecipe(ctx context.Context, ingredients []string, options GenerationOptions) (json.RawMessage, error) {
	s.calls++
	if s.generate != nil {
		return s.generate(ctx)
	}
	return s.payload, s.err
}

func (s *stubInference) ModifyRecipe(ctx context.Context, original json.RawMessage, request string) (json.RawMessage, error) {
	s.calls++
	return s.payload, s.err
}

func (s *stubInference) DetectIngredients(ctx context.Context, image []byte) ([]Detection, error) {
	return nil, errors.New("not implemented")
}

type stubQuota struct {
	decision Decision
	calls    int
}

func (s *stubQuota) Check(ctx context.Context, req Requester) (Decision, error) {
	s.calls++
	return s.decision, nil
}

func (s *stubQuota) Status(ctx context.Context, req Requester) (Decision, error) {
	return s.decision, nil
}

type stubNotifier struct {
	err    error
	events []string
}

func (s *stubNotifier) Notify(ctx context.Context, user *model.User, event string, payload map[string]interface{}) error {
	s.events = append(s.events, event)
	return s.err
}

type generatorFixture struct {
	generator *Generator
	db        *gorm.DB
	inference *stubInference
	quota     *stubQuota
	notifier  *stubNotifier
}

func newGeneratorFixture(t *testing.T) *generatorFixture {
	t.Helper()

	db := newTestDB(t)
	_, client := newTestRedis(t)
	inference := &stubInference{payload: validRecipePayload()}
	quota := &stubQuota{decision: Decision{Allowed: true, Remaining: 5}}
	notifier := &stubNotifier{}
	clock := &fakeClock{now: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)}

	generator := NewGenerator(db, inference, quota, NewRedisRecipeCache(client), NewAuditLog(db), notifier, clock)
	return &generatorFixture{generator: generator, db: db, inference: inference, quota: quota, notifier: notifier}
}

func (f *generatorFixture) auditEntries(t *testing.T) []model.GenerationLog {
	t.Helper()

	var entries []model.GenerationLog
	require.NoError(t, f.db.Order("created_at").Find(&entries).Error)
	return entries
}

func TestGeneratorGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("success persists recipe, audit entry, and cache", func(t *testing.T) {
		f := newGeneratorFixture(t)
		user := createTestUser(t, f.db, false)

		recipe, err := f.generator.Generate(ctx, GenerationRequest{
			Ingredients: []string{"chicken", "butter", "garlic"},
			UserID:      &user.ID,
			RequestID:   "req-1",
		})
		require.NoError(t, err)

		assert.Equal(t, "Garlic Butter Chicken", recipe.Title)
		assert.True(t, strings.HasPrefix(recipe.Slug, "garlic-butter-chicken-"))
		assert.Equal(t, &user.ID, recipe.UserID)
		assert.Equal(t, "test-model", recipe.AIMetadata["model"])
		assert.Equal(t, "req-1", recipe.AIMetadata["request_id"])

		entries := f.auditEntries(t)
		require.Len(t, entries, 1)
		assert.Equal(t, model.GenerationStatusSuccess, entries[0].Status)
		assert.Equal(t, "req-1", entries[0].RequestID)

		assert.Equal(t, []string{EventRecipeGenerated}, f.notifier.events)
	})

	t.Run("repeated request is served from cache", func(t *testing.T) {
		f := newGeneratorFixture(t)
		user := createTestUser(t, f.db, false)
		req := GenerationRequest{
			Ingredients: []string{"chicken", "butter", "garlic"},
			UserID:      &user.ID,
		}

		first, err := f.generator.Generate(ctx, req)
		require.NoError(t, err)
		second, err := f.generator.Generate(ctx, req)
		require.NoError(t, err)

		// One inference call and one quota charge; the hit consumed neither
		assert.Equal(t, 1, f.inference.calls)
		assert.Equal(t, 1, f.quota.calls)

		// The hit still persisted a fresh recipe row under a new slug
		assert.NotEqual(t, first.ID, second.ID)
		assert.NotEqual(t, first.Slug, second.Slug)
		var count int64
		require.NoError(t, f.db.Model(&model.Recipe{}).Count(&count).Error)
		assert.Equal(t, int64(2), count)

		// No audit entry for the hit
		assert.Len(t, f.auditEntries(t), 1)
	})

	t.Run("ingredient order hits the same cache entry", func(t *testing.T) {
		f := newGeneratorFixture(t)

		_, err := f.generator.Generate(ctx, GenerationRequest{Ingredients: []string{"rice", "egg"}, GuestIP: "203.0.113.7"})
		require.NoError(t, err)
		_, err = f.generator.Generate(ctx, GenerationRequest{Ingredients: []string{"egg", "rice"}, GuestIP: "203.0.113.7"})
		require.NoError(t, err)

		assert.Equal(t, 1, f.inference.calls)
	})

	t.Run("quota denial is surfaced and skips inference", func(t *testing.T) {
		f := newGeneratorFixture(t)
		retryAt := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		f.quota.decision = Decision{Allowed: false, Message: "daily limit reached", RetryAt: retryAt}

		_, err := f.generator.Generate(ctx, GenerationRequest{Ingredients: []string{"egg"}, GuestIP: "203.0.113.7"})

		var quotaErr *QuotaExceededError
		require.ErrorAs(t, err, &quotaErr)
		assert.Equal(t, "daily limit reached", quotaErr.Message)
		assert.Equal(t, retryAt, quotaErr.RetryAt)
		assert.Equal(t, 0, f.inference.calls)
		assert.Empty(t, f.auditEntries(t))
	})

	t.Run("inference failure writes a failed audit entry", func(t *testing.T) {
		f := newGeneratorFixture(t)
		f.inference.payload = nil
		f.inference.err = &InferenceError{Op: "generate", Err: errors.New("connection refused")}

		_, err := f.generator.Generate(ctx, GenerationRequest{Ingredients: []string{"egg"}, GuestIP: "203.0.113.7"})

		var infErr *InferenceError
		require.ErrorAs(t, err, &infErr)

		entries := f.auditEntries(t)
		require.Len(t, entries, 1)
		assert.Equal(t, model.GenerationStatusFailed, entries[0].Status)
		assert.Contains(t, entries[0].ErrorMessage, "connection refused")

		var count int64
		require.NoError(t, f.db.Model(&model.Recipe{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("timed-out attempt still writes a failed audit entry", func(t *testing.T) {
		f := newGeneratorFixture(t)
		f.inference.generate = func(ctx context.Context) (json.RawMessage, error) {
			<-ctx.Done()
			return nil, &InferenceError{Op: "generate", Err: ctx.Err()}
		}

		attemptCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := f.generator.Run(attemptCtx, GenerationRequest{Ingredients: []string{"egg"}, GuestIP: "203.0.113.7"})

		var infErr *InferenceError
		require.ErrorAs(t, err, &infErr)

		entries := f.auditEntries(t)
		require.Len(t, entries, 1)
		assert.Equal(t, model.GenerationStatusFailed, entries[0].Status)
	})

	t.Run("cache hit still notifies the owner", func(t *testing.T) {
		f := newGeneratorFixture(t)
		user := createTestUser(t, f.db, false)
		req := GenerationRequest{
			Ingredients: []string{"chicken", "butter", "garlic"},
			UserID:      &user.ID,
		}

		_, err := f.generator.Generate(ctx, req)
		require.NoError(t, err)
		_, err = f.generator.Generate(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, 1, f.inference.calls)
		assert.Equal(t, []string{EventRecipeGenerated, EventRecipeGenerated}, f.notifier.events)
	})

	t.Run("invalid model output is rejected without persisting", func(t *testing.T) {
		f := newGeneratorFixture(t)
		f.inference.payload = json.RawMessage(`{"title": "No Steps"}`)

		_, err := f.generator.Generate(ctx, GenerationRequest{Ingredients: []string{"egg"}, GuestIP: "203.0.113.7"})

		var invalid *InvalidOutputError
		require.ErrorAs(t, err, &invalid)

		entries := f.auditEntries(t)
		require.Len(t, entries, 1)
		assert.Equal(t, model.GenerationStatusFailed, entries[0].Status)
	})

	t.Run("empty ingredients are rejected before any work", func(t *testing.T) {
		f := newGeneratorFixture(t)

		_, err := f.generator.Generate(ctx, GenerationRequest{GuestIP: "203.0.113.7"})

		var invalid *InvalidOutputError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, 0, f.inference.calls)
		assert.Equal(t, 0, f.quota.calls)
	})

	t.Run("notification failure does not fail generation", func(t *testing.T) {
		f := newGeneratorFixture(t)
		user := createTestUser(t, f.db, false)
		f.notifier.err = errors.New("smtp down")

		recipe, err := f.generator.Generate(ctx, GenerationRequest{
			Ingredients: []string{"egg"},
			UserID:      &user.ID,
		})
		require.NoError(t, err)
		assert.NotNil(t, recipe)
	})

	t.Run("guests get no notification", func(t *testing.T) {
		f := newGeneratorFixture(t)

		_, err := f.generator.Generate(ctx, GenerationRequest{Ingredients: []string{"egg"}, GuestIP: "203.0.113.7"})
		require.NoError(t, err)
		assert.Empty(t, f.notifier.events)
	})
}
