package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pantrychef/backend/internal/model"
)

// ExpiryWindow is how far ahead the daily sweep looks for expiring items
const ExpiryWindow = 3 * 24 * time.Hour

// PantrySweep finds pantry items that are about to expire and notifies
// their owners. Invoked once daily by an external scheduler.
type PantrySweep struct {
	db       *gorm.DB
	notifier Notifier
	clock    Clock
}

// NewPantrySweep creates a new PantrySweep instance
func NewPantrySweep(db *gorm.DB, notifier Notifier, clock Clock) *PantrySweep {
	return &PantrySweep{db: db, notifier: notifier, clock: clock}
}

// Run performs one sweep. It returns the number of users notified; a
// notification failure for one user never aborts the sweep.
func (s *PantrySweep) Run(ctx context.Context) (int, error) {
	now := s.clock.Now()
	cutoff := now.Add(ExpiryWindow)

	var items []model.PantryItem
	err := s.db.WithContext(ctx).
		Where("expiry_date IS NOT NULL AND expiry_date > ? AND expiry_date <= ?", now, cutoff).
		Order("user_id").
		Find(&items).Error
	if err != nil {
		return 0, fmt.Errorf("failed to query expiring items: %w", err)
	}

	byUser := make(map[uuid.UUID][]string)
	for _, item := range items {
		byUser[item.UserID] = append(byUser[item.UserID], item.Name)
	}

	notified := 0
	for userID, names := range byUser {
		var user model.User
		if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
			log.Printf("[PantrySweep] failed to load user %s: %v", userID, err)
			continue
		}
		if user.Email == "" {
			continue
		}

		payload := map[string]interface{}{"items": names}
		if err := s.notifier.Notify(ctx, &user, EventPantryExpiring, payload); err != nil {
			log.Printf("[PantrySweep] failed to notify user %s: %v", userID, err)
			continue
		}
		notified++
	}

	log.Printf("[PantrySweep] checked %d expiring items, notified %d users", len(items), notified)
	return notified, nil
}
