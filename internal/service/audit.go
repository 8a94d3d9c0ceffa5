package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pantrychef/backend/internal/model"
)

// AuditLog persists generation attempts. Rows are insert-only; the quota
// gate uses CountSuccessToday as its source of truth.
type AuditLog struct {
	db *gorm.DB
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(db *gorm.DB) *AuditLog {
	return &AuditLog{db: db}
}

// Append inserts one log entry. Existing rows are never updated.
func (l *AuditLog) Append(ctx context.Context, entry *model.GenerationLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := l.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append generation log: %w", err)
	}
	return nil
}

// CountSuccessToday counts the user's successful generations on the
// calendar day containing now
func (l *AuditLog) CountSuccessToday(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	y, m, d := now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int64
	err := l.db.WithContext(ctx).Model(&model.GenerationLog{}).
		Where("user_id = ? AND status = ? AND created_at >= ? AND created_at < ?",
			userID, model.GenerationStatusSuccess, dayStart, dayEnd).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count generation log entries: %w", err)
	}
	return count, nil
}
