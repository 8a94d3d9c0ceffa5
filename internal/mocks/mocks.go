package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pantrychef/backend/internal/model"
	"github.com/pantrychef/backend/internal/service"
)

// MockInferenceProvider is a programmable test double for the inference
// boundary. Call counts let tests assert that cache hits bypass inference.
type MockInferenceProvider struct {
	mu sync.Mutex

	ModelID      string
	GenerateFunc func(ctx context.Context, ingredients []string, options service.GenerationOptions) (json.RawMessage, error)
	ModifyFunc   func(ctx context.Context, original json.RawMessage, request string) (json.RawMessage, error)
	DetectFunc   func(ctx context.Context, image []byte) ([]service.Detection, error)

	GenerateCalls int
	ModifyCalls   int
	DetectCalls   int
}

func (m *MockInferenceProvider) Model() string {
	if m.ModelID == "" {
		return "test-model"
	}
	return m.ModelID
}

func (m *MockInferenceProvider) GenerateRecipe(ctx context.Context, ingredients []string, options service.GenerationOptions) (json.RawMessage, error) {
	m.mu.Lock()
	m.GenerateCalls++
	m.mu.Unlock()
	return m.GenerateFunc(ctx, ingredients, options)
}

func (m *MockInferenceProvider) ModifyRecipe(ctx context.Context, original json.RawMessage, request string) (json.RawMessage, error) {
	m.mu.Lock()
	m.ModifyCalls++
	m.mu.Unlock()
	return m.ModifyFunc(ctx, original, request)
}

func (m *MockInferenceProvider) DetectIngredients(ctx context.Context, image []byte) ([]service.Detection, error) {
	m.mu.Lock()
	m.DetectCalls++
	m.mu.Unlock()
	return m.DetectFunc(ctx, image)
}

// MockNotifier records notifications instead of sending them
type MockNotifier struct {
	mu sync.Mutex

	Err   error
	Calls []NotifyCall
}

// NotifyCall captures one Notify invocation
type NotifyCall struct {
	UserID  string
	Event   string
	Payload map[string]interface{}
}

func (m *MockNotifier) Notify(ctx context.Context, user *model.User, event string, payload map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, NotifyCall{UserID: user.ID.String(), Event: event, Payload: payload})
	return m.Err
}

// FakeClock is a settable clock so tests control "today"
type FakeClock struct {
	mu      sync.Mutex
	Current time.Time
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Current
}

// Advance moves the clock forward
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Current = c.Current.Add(d)
}

// Set moves the clock to a specific time
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Current = t
}
