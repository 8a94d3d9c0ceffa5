package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`

	IsPremium    bool       `gorm:"default:false" json:"is_premium"`
	PremiumUntil *time.Time `json:"premium_until"`

	// Best-effort mirror of today's generation count. The generation log
	// is the source of truth for quota decisions. CounterDate is the
	// calendar day the counter refers to; the count restarts from 1 when
	// it rolls over.
	DailyGenerationCounter int    `gorm:"default:0" json:"daily_generation_counter"`
	CounterDate            string `gorm:"size:10" json:"counter_date"`
}

// PremiumActive reports whether the premium tier is in effect at the given
// time. A set flag with no expiry means a lifetime subscription.
func (u *User) PremiumActive(now time.Time) bool {
	if !u.IsPremium {
		return false
	}
	return u.PremiumUntil == nil || u.PremiumUntil.After(now)
}
