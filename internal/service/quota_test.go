package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pantrychef/backend/internal/model"
)

const (
	testFreeLimit  = 10
	testGuestLimit = 3
)

func newTestGate(t *testing.T) (*QuotaGate, *gorm.DB, *fakeClock) {
	t.Helper()

	db := newTestDB(t)
	_, client := newTestRedis(t)
	clock := &fakeClock{now: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)}
	gate := NewQuotaGate(db, NewAuditLog(db), NewRedisGuestCounter(client, clock), clock, testFreeLimit, testGuestLimit)
	return gate, db, clock
}

func seedSuccessEntries(t *testing.T, db *gorm.DB, userID uuid.UUID, day time.Time, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		entry := model.GenerationLog{
			ID:        uuid.New(),
			CreatedAt: day,
			UserID:    &userID,
			Status:    model.GenerationStatusSuccess,
		}
		require.NoError(t, db.Create(&entry).Error)
	}
}

func TestQuotaGateUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("premium users are unlimited", func(t *testing.T) {
		gate, db, clock := newTestGate(t)
		user := createTestUser(t, db, true)
		seedSuccessEntries(t, db, user.ID, clock.Now(), testFreeLimit+5)

		decision, err := gate.Check(ctx, Requester{UserID: &user.ID})
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, UnlimitedRemaining, decision.Remaining)
	})

	t.Run("expired premium falls back to free tier", func(t *testing.T) {
		gate, db, clock := newTestGate(t)
		user := createTestUser(t, db, true)
		expired := clock.Now().Add(-time.Hour)
		require.NoError(t, db.Model(user).Update("premium_until", &expired).Error)
		seedSuccessEntries(t, db, user.ID, clock.Now(), testFreeLimit)

		decision, err := gate.Check(ctx, Requester{UserID: &user.ID})
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
	})

	t.Run("remaining decreases monotonically", func(t *testing.T) {
		gate, db, clock := newTestGate(t)
		user := createTestUser(t, db, false)

		decision, err := gate.Check(ctx, Requester{UserID: &user.ID})
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, testFreeLimit-1, decision.Remaining)

		seedSuccessEntries(t, db, user.ID, clock.Now(), 4)
		decision, err = gate.Check(ctx, Requester{UserID: &user.ID})
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, testFreeLimit-5, decision.Remaining)
	})

	t.Run("request past the limit is denied", func(t *testing.T) {
		gate, db, clock := newTestGate(t)
		user := createTestUser(t, db, false)
		seedSuccessEntries(t, db, user.ID, clock.Now(), testFreeLimit)

		decision, err := gate.Check(ctx, Requester{UserID: &user.ID})
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Contains(t, decision.Message, "daily limit")
		assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), decision.RetryAt)
	})

	t.Run("only successes count toward the limit", func(t *testing.T) {
		gate, db, clock := newTestGate(t)
		user := createTestUser(t, db, false)
		for i := 0; i < testFreeLimit; i++ {
			entry := model.GenerationLog{
				ID:        uuid.New(),
				CreatedAt: clock.Now(),
				UserID:    &user.ID,
				Status:    model.GenerationStatusFailed,
			}
			require.NoError(t, db.Create(&entry).Error)
		}

		decision, err := gate.Check(ctx, Requester{UserID: &user.ID})
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, testFreeLimit-1, decision.Remaining)
	})

	t.Run("yesterday's successes do not count", func(t *testing.T) {
		gate, db, clock := newTestGate(t)
		user := createTestUser(t, db, false)
		seedSuccessEntries(t, db, user.ID, clock.Now().AddDate(0, 0, -1), testFreeLimit)

		decision, err := gate.Check(ctx, Requester{UserID: &user.ID})
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	})

	t.Run("allowed check mirrors into the user counter", func(t *testing.T) {
		gate, db, clock := newTestGate(t)
		user := createTestUser(t, db, false)

		_, err := gate.Check(ctx, Requester{UserID: &user.ID})
		require.NoError(t, err)
		_, err = gate.Check(ctx, Requester{UserID: &user.ID})
		require.NoError(t, err)

		var reloaded model.User
		require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
		assert.Equal(t, 2, reloaded.DailyGenerationCounter)
		assert.Equal(t, clock.Now().Format("2006-01-02"), reloaded.CounterDate)
	})

	t.Run("counter mirror restarts on a new day", func(t *testing.T) {
		gate, db, clock := newTestGate(t)
		user := createTestUser(t, db, false)

		_, err := gate.Check(ctx, Requester{UserID: &user.ID})
		require.NoError(t, err)
		_, err = gate.Check(ctx, Requester{UserID: &user.ID})
		require.NoError(t, err)

		clock.advance(24 * time.Hour)
		_, err = gate.Check(ctx, Requester{UserID: &user.ID})
		require.NoError(t, err)

		var reloaded model.User
		require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
		assert.Equal(t, 1, reloaded.DailyGenerationCounter)
		assert.Equal(t, clock.Now().Format("2006-01-02"), reloaded.CounterDate)
	})
}

func TestQuotaGateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("status does not charge the allowance", func(t *testing.T) {
		gate, _, _ := newTestGate(t)

		for i := 0; i < 5; i++ {
			decision, err := gate.Status(ctx, Requester{IP: "203.0.113.7"})
			require.NoError(t, err)
			assert.True(t, decision.Allowed)
			assert.Equal(t, testGuestLimit, decision.Remaining)
		}
	})

	t.Run("status reflects charged checks", func(t *testing.T) {
		gate, _, _ := newTestGate(t)

		_, err := gate.Check(ctx, Requester{IP: "203.0.113.7"})
		require.NoError(t, err)

		decision, err := gate.Status(ctx, Requester{IP: "203.0.113.7"})
		require.NoError(t, err)
		assert.Equal(t, testGuestLimit-1, decision.Remaining)
	})

	t.Run("exhausted free user sees zero remaining", func(t *testing.T) {
		gate, db, clock := newTestGate(t)
		user := createTestUser(t, db, false)
		seedSuccessEntries(t, db, user.ID, clock.Now(), testFreeLimit)

		decision, err := gate.Status(ctx, Requester{UserID: &user.ID})
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, 0, decision.Remaining)
		assert.False(t, decision.RetryAt.IsZero())
	})

	t.Run("premium user sees unlimited", func(t *testing.T) {
		gate, db, _ := newTestGate(t)
		user := createTestUser(t, db, true)

		decision, err := gate.Status(ctx, Requester{UserID: &user.ID})
		require.NoError(t, err)
		assert.Equal(t, UnlimitedRemaining, decision.Remaining)
	})
}

func TestQuotaGateGuests(t *testing.T) {
	ctx := context.Background()

	t.Run("guests get the guest limit per day", func(t *testing.T) {
		gate, _, _ := newTestGate(t)

		for i := 0; i < testGuestLimit; i++ {
			decision, err := gate.Check(ctx, Requester{IP: "203.0.113.7"})
			require.NoError(t, err)
			assert.True(t, decision.Allowed)
			assert.Equal(t, testGuestLimit-i-1, decision.Remaining)
		}

		decision, err := gate.Check(ctx, Requester{IP: "203.0.113.7"})
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Contains(t, decision.Message, "Sign up")
	})

	t.Run("guest buckets are isolated per IP", func(t *testing.T) {
		gate, _, _ := newTestGate(t)

		for i := 0; i < testGuestLimit; i++ {
			_, err := gate.Check(ctx, Requester{IP: "203.0.113.7"})
			require.NoError(t, err)
		}

		decision, err := gate.Check(ctx, Requester{IP: "203.0.113.8"})
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	})

	t.Run("guest bucket resets at the next day", func(t *testing.T) {
		gate, _, clock := newTestGate(t)

		for i := 0; i < testGuestLimit; i++ {
			_, err := gate.Check(ctx, Requester{IP: "203.0.113.7"})
			require.NoError(t, err)
		}

		clock.advance(24 * time.Hour)
		decision, err := gate.Check(ctx, Requester{IP: "203.0.113.7"})
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, testGuestLimit-1, decision.Remaining)
	})

	t.Run("missing IP is denied", func(t *testing.T) {
		gate, _, _ := newTestGate(t)

		decision, err := gate.Check(ctx, Requester{})
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.NotEmpty(t, decision.Message)
	})
}
