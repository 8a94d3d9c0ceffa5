package model

import (
	"time"

	"github.com/google/uuid"
)

// Generation log status values
const (
	GenerationStatusSuccess = "success"
	GenerationStatusFailed  = "failed"
)

// GenerationLog is an append-only record of one generation attempt.
// Rows are never updated after creation; the quota gate counts today's
// success rows per user.
type GenerationLog struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UserID       *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Inputs       JSONBMap   `gorm:"type:jsonb" json:"inputs"`
	ModelUsed    string     `gorm:"size:100" json:"model_used"`
	RequestID    string     `gorm:"size:64" json:"request_id"`
	ResponseTime float64    `json:"response_time"`
	Status       string     `gorm:"size:20;not null;index" json:"status"`
	ErrorMessage string     `gorm:"type:text" json:"error_message"`
	CostEstimate float64    `json:"cost_estimate"`
}
