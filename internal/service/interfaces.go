package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/pantrychef/backend/internal/model"
)

// InferenceProvider is the boundary to the external model API. Calls are
// single-shot; retry, if any, belongs to the caller.
type InferenceProvider interface {
	Model() string
	GenerateRecipe(ctx context.Context, ingredients []string, options GenerationOptions) (json.RawMessage, error)
	ModifyRecipe(ctx context.Context, original json.RawMessage, request string) (json.RawMessage, error)
	DetectIngredients(ctx context.Context, image []byte) ([]Detection, error)
}

// ResultCache is the ephemeral store for validated generation payloads
type ResultCache interface {
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	Put(ctx context.Context, key string, payload json.RawMessage) error
}

// QuotaChecker decides whether a requester may generate today. Check
// charges the allowance; Status only reads it.
type QuotaChecker interface {
	Check(ctx context.Context, req Requester) (Decision, error)
	Status(ctx context.Context, req Requester) (Decision, error)
}

// AuditRecorder is the append-only generation log
type AuditRecorder interface {
	Append(ctx context.Context, entry *model.GenerationLog) error
	CountSuccessToday(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}

// Notifier dispatches fire-and-forget user notifications. Failures are
// logged by callers, never propagated.
type Notifier interface {
	Notify(ctx context.Context, user *model.User, event string, payload map[string]interface{}) error
}
