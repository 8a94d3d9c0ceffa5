package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pantrychef/backend/internal/model"
)

// UnlimitedRemaining is the sentinel returned for premium users
const UnlimitedRemaining = -1

// Clock abstracts time.Now so tests can control "today"
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now
func SystemClock() Clock { return realClock{} }

// Requester identifies who is asking for a generation: an authenticated
// user, or a guest known only by IP.
type Requester struct {
	UserID *uuid.UUID
	IP     string
}

// Decision is the outcome of a quota check
type Decision struct {
	Allowed   bool
	Remaining int
	Message   string
	RetryAt   time.Time
}

// GuestCounterStore is the ephemeral per-IP daily counter. The read and
// write are separate operations; concurrent requests from the same IP can
// race slightly past the limit, which is accepted for this domain.
type GuestCounterStore interface {
	Get(ctx context.Context, key string) (int, error)
	Put(ctx context.Context, key string, count int, expireAt time.Time) error
}

// RedisGuestCounter implements GuestCounterStore on Redis with expiry at
// end of day
type RedisGuestCounter struct {
	redis *redis.Client
	clock Clock
}

// NewRedisGuestCounter creates a new RedisGuestCounter instance
func NewRedisGuestCounter(redisClient *redis.Client, clock Clock) *RedisGuestCounter {
	return &RedisGuestCounter{redis: redisClient, clock: clock}
}

func (s *RedisGuestCounter) Get(ctx context.Context, key string) (int, error) {
	count, err := s.redis.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read guest counter: %w", err)
	}
	return count, nil
}

func (s *RedisGuestCounter) Put(ctx context.Context, key string, count int, expireAt time.Time) error {
	ttl := expireAt.Sub(s.clock.Now())
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := s.redis.Set(ctx, key, count, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write guest counter: %w", err)
	}
	return nil
}

// QuotaGate decides whether a requester may issue a new generation today.
// Premium users are unlimited; free users get FreeLimit successful
// generations per day counted from the generation log; guests get
// GuestLimit per IP per day from an ephemeral counter.
type QuotaGate struct {
	db         *gorm.DB
	audit      AuditRecorder
	guests     GuestCounterStore
	clock      Clock
	freeLimit  int
	guestLimit int
}

// NewQuotaGate creates a new QuotaGate instance
func NewQuotaGate(db *gorm.DB, audit AuditRecorder, guests GuestCounterStore, clock Clock, freeLimit, guestLimit int) *QuotaGate {
	return &QuotaGate{
		db:         db,
		audit:      audit,
		guests:     guests,
		clock:      clock,
		freeLimit:  freeLimit,
		guestLimit: guestLimit,
	}
}

// Check applies the quota policy for the requester. The Allowed path
// increments the relevant counter immediately; for free users the user row
// counter is a best-effort mirror, the log remains the source of truth.
func (g *QuotaGate) Check(ctx context.Context, req Requester) (Decision, error) {
	if req.UserID != nil {
		return g.checkUser(ctx, *req.UserID)
	}
	return g.checkGuest(ctx, req.IP)
}

func (g *QuotaGate) checkUser(ctx context.Context, userID uuid.UUID) (Decision, error) {
	var user model.User
	if err := g.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return Decision{}, fmt.Errorf("failed to load user for quota check: %w", err)
	}

	now := g.clock.Now()
	if user.PremiumActive(now) {
		return Decision{Allowed: true, Remaining: UnlimitedRemaining}, nil
	}

	count, err := g.audit.CountSuccessToday(ctx, userID, now)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to count today's generations: %w", err)
	}

	if int(count) >= g.freeLimit {
		return Decision{
			Allowed: false,
			Message: fmt.Sprintf("You have reached your daily limit of %d recipe generations. Upgrade to Premium for unlimited generations!", g.freeLimit),
			RetryAt: startOfNextDay(now),
		}, nil
	}

	// Best-effort reservation; concurrent requests can transiently exceed
	// the limit by a small margin. The counter restarts when its stored
	// date rolls over to a new day.
	today := now.Format("2006-01-02")
	if err := g.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"daily_generation_counter": gorm.Expr("CASE WHEN counter_date = ? THEN daily_generation_counter + 1 ELSE 1 END", today),
			"counter_date":             today,
		}).Error; err != nil {
		return Decision{}, fmt.Errorf("failed to increment daily counter: %w", err)
	}

	return Decision{Allowed: true, Remaining: g.freeLimit - int(count) - 1}, nil
}

func (g *QuotaGate) checkGuest(ctx context.Context, ip string) (Decision, error) {
	// The guest bucket is keyed by IP; no IP means no bucket
	if ip == "" {
		return Decision{
			Allowed: false,
			Message: "Unable to identify requester. Sign up for free to generate recipes!",
		}, nil
	}

	now := g.clock.Now()
	key := fmt.Sprintf("guest_generation:%s:%s", ip, now.Format("2006-01-02"))

	count, err := g.guests.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}

	if count >= g.guestLimit {
		return Decision{
			Allowed: false,
			Message: fmt.Sprintf("You have reached your daily limit of %d recipe generations. Sign up for free to get %d generations per day!", g.guestLimit, g.freeLimit),
			RetryAt: startOfNextDay(now),
		}, nil
	}

	if err := g.guests.Put(ctx, key, count+1, startOfNextDay(now)); err != nil {
		return Decision{}, err
	}

	return Decision{Allowed: true, Remaining: g.guestLimit - count - 1}, nil
}

// Status reports the requester's current allowance without charging it.
// Serves the quota endpoint so clients can render remaining counts.
func (g *QuotaGate) Status(ctx context.Context, req Requester) (Decision, error) {
	now := g.clock.Now()

	if req.UserID != nil {
		var user model.User
		if err := g.db.WithContext(ctx).First(&user, "id = ?", *req.UserID).Error; err != nil {
			return Decision{}, fmt.Errorf("failed to load user for quota status: %w", err)
		}
		if user.PremiumActive(now) {
			return Decision{Allowed: true, Remaining: UnlimitedRemaining}, nil
		}

		count, err := g.audit.CountSuccessToday(ctx, *req.UserID, now)
		if err != nil {
			return Decision{}, fmt.Errorf("failed to count today's generations: %w", err)
		}
		remaining := g.freeLimit - int(count)
		if remaining <= 0 {
			return Decision{Remaining: 0, RetryAt: startOfNextDay(now)}, nil
		}
		return Decision{Allowed: true, Remaining: remaining}, nil
	}

	if req.IP == "" {
		return Decision{Message: "Unable to identify requester. Sign up for free to generate recipes!"}, nil
	}

	key := fmt.Sprintf("guest_generation:%s:%s", req.IP, now.Format("2006-01-02"))
	count, err := g.guests.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	remaining := g.guestLimit - count
	if remaining <= 0 {
		return Decision{Remaining: 0, RetryAt: startOfNextDay(now)}, nil
	}
	return Decision{Allowed: true, Remaining: remaining}, nil
}

func startOfNextDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}
