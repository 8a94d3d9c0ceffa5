package service

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pantrychef/backend/internal/database"
	"github.com/pantrychef/backend/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique shared-cache DSN so each test gets its own in-memory database
	// that survives across pooled connections
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func createTestUser(t *testing.T, db *gorm.DB, premium bool) *model.User {
	t.Helper()

	user := model.User{
		ID:           uuid.New(),
		Name:         "test user",
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		PasswordHash: "hash",
		IsPremium:    premium,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// fakeClock pins "today" so quota windows are deterministic
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func validRecipePayload() json.RawMessage {
	return json.RawMessage(`{
		"title": "Garlic Butter Chicken",
		"description": "Pan-seared chicken in a garlic butter sauce.",
		"cuisine": "Italian",
		"difficulty": "easy",
		"prep_time": 10,
		"cook_time": 20,
		"servings": 2,
		"ingredients": [
			{"item": "chicken breast", "amount": "2", "unit": "pieces"},
			{"item": "butter", "amount": "3", "unit": "tbsp"},
			{"item": "garlic", "amount": "4", "unit": "cloves"}
		],
		"instructions": [
			"Season the chicken.",
			"Sear in butter until golden.",
			"Add garlic and baste."
		],
		"nutritional_estimate": {"calories": 450, "protein": 38, "carbs": 5, "fat": 22},
		"tags": ["quick", "weeknight"]
	}`)
}
