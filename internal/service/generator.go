package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pantrychef/backend/internal/model"
)

// EventRecipeGenerated is dispatched after a successful generation
const EventRecipeGenerated = "recipe.generated"

// GenerationRequest is the transient input to one pipeline run
type GenerationRequest struct {
	Ingredients []string          `json:"ingredients"`
	Options     GenerationOptions `json:"options"`
	UserID      *uuid.UUID        `json:"user_id"`
	GuestIP     string            `json:"-"`
	RequestID   string            `json:"request_id"`
}

// Generator coordinates the generation pipeline: quota gate, cache lookup,
// inference, validation, persistence, audit log, notification.
type Generator struct {
	db        *gorm.DB
	inference InferenceProvider
	quota     QuotaChecker
	cache     ResultCache
	audit     AuditRecorder
	notifier  Notifier
	clock     Clock
}

// NewGenerator creates a new Generator instance
func NewGenerator(db *gorm.DB, inference InferenceProvider, quota QuotaChecker, cache ResultCache, audit AuditRecorder, notifier Notifier, clock Clock) *Generator {
	return &Generator{
		db:        db,
		inference: inference,
		quota:     quota,
		cache:     cache,
		audit:     audit,
		notifier:  notifier,
		clock:     clock,
	}
}

// Generate runs the synchronous pipeline. The cache is consulted before the
// quota gate so that a hit costs neither an inference call nor a quota
// slot; no audit entry is written for hits.
func (g *Generator) Generate(ctx context.Context, req GenerationRequest) (*model.Recipe, error) {
	if len(req.Ingredients) == 0 {
		return nil, &InvalidOutputError{Reason: "ingredients must not be empty"}
	}

	if recipe, ok := g.fromCache(ctx, req); ok {
		return recipe, nil
	}

	decision, err := g.quota.Check(ctx, Requester{UserID: req.UserID, IP: req.GuestIP})
	if err != nil {
		return nil, fmt.Errorf("quota check failed: %w", err)
	}
	if !decision.Allowed {
		return nil, &QuotaExceededError{Message: decision.Message, RetryAt: decision.RetryAt}
	}

	return g.Run(ctx, req)
}

// Run executes the pipeline without consulting the quota gate. The queued
// path uses it directly because quota was charged at enqueue time.
func (g *Generator) Run(ctx context.Context, req GenerationRequest) (*model.Recipe, error) {
	if recipe, ok := g.fromCache(ctx, req); ok {
		return recipe, nil
	}

	start := g.clock.Now()
	payload, err := g.inference.GenerateRecipe(ctx, req.Ingredients, req.Options)
	latency := g.clock.Now().Sub(start).Seconds()

	if err != nil {
		g.auditFailure(ctx, req, latency, err.Error())
		return nil, err
	}

	data, err := ValidateRecipe(payload)
	if err != nil {
		g.auditFailure(ctx, req, latency, err.Error())
		return nil, err
	}

	recipe, err := g.persist(ctx, data, req)
	if err != nil {
		g.auditFailure(ctx, req, latency, err.Error())
		return nil, err
	}

	key := DeriveKey(req.Ingredients, req.Options)
	if err := g.cache.Put(context.WithoutCancel(ctx), key, payload); err != nil {
		log.Printf("[Generator] failed to cache result: %v", err)
	}

	g.auditSuccess(ctx, req, latency)
	g.notify(ctx, req.UserID, recipe)

	return recipe, nil
}

// fromCache returns a recipe persisted from a cached payload, if an
// unexpired entry exists for this request's derived key
func (g *Generator) fromCache(ctx context.Context, req GenerationRequest) (*model.Recipe, bool) {
	key := DeriveKey(req.Ingredients, req.Options)
	payload, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		log.Printf("[Generator] cache lookup failed: %v", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	data, err := ValidateRecipe(payload)
	if err != nil {
		// Stale or corrupt cache entry; fall through to a fresh run
		log.Printf("[Generator] discarding invalid cached payload for key %s: %v", key, err)
		return nil, false
	}

	recipe, err := g.persist(ctx, data, req)
	if err != nil {
		log.Printf("[Generator] failed to persist cached recipe: %v", err)
		return nil, false
	}

	log.Printf("[Generator] cache hit for key %s", key)
	g.notify(ctx, req.UserID, recipe)
	return recipe, true
}

// persist creates the Recipe row. Persistence is a single atomic create;
// on failure no partial recipe is left behind.
func (g *Generator) persist(ctx context.Context, data *RecipeData, req GenerationRequest) (*model.Recipe, error) {
	metadata := model.JSONBMap{
		"model": g.inference.Model(),
		"tags":  data.Tags,
	}
	if req.RequestID != "" {
		metadata["request_id"] = req.RequestID
	}

	var nutrition model.JSONBMap
	if data.NutritionalEstimate != nil {
		nutrition = model.JSONBMap(data.NutritionalEstimate)
	}

	recipe := model.Recipe{
		ID:              uuid.New(),
		Title:           data.Title,
		Slug:            Slugify(data.Title) + "-" + randomSuffix(5),
		Description:     data.Description,
		UserID:          req.UserID,
		Cuisine:         data.Cuisine,
		Difficulty:      data.Difficulty,
		PrepTime:        int(data.PrepTime),
		CookTime:        int(data.CookTime),
		Servings:        int(data.Servings),
		Ingredients:     model.JSONBIngredients(data.Ingredients),
		Instructions:    model.JSONBStringArray(data.Instructions),
		NutritionalInfo: nutrition,
		AIMetadata:      metadata,
		IsPublic:        true,
	}

	if err := g.db.WithContext(ctx).Create(&recipe).Error; err != nil {
		return nil, fmt.Errorf("failed to persist recipe: %w", err)
	}
	return &recipe, nil
}

func (g *Generator) auditSuccess(ctx context.Context, req GenerationRequest, latency float64) {
	entry := &model.GenerationLog{
		UserID:       req.UserID,
		Inputs:       auditInputs(req),
		ModelUsed:    g.inference.Model(),
		RequestID:    req.RequestID,
		ResponseTime: latency,
		Status:       model.GenerationStatusSuccess,
	}
	if err := g.audit.Append(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("[Generator] failed to write success audit entry: %v", err)
	}
}

func (g *Generator) auditFailure(ctx context.Context, req GenerationRequest, latency float64, message string) {
	entry := &model.GenerationLog{
		UserID:       req.UserID,
		Inputs:       auditInputs(req),
		ModelUsed:    g.inference.Model(),
		RequestID:    req.RequestID,
		ResponseTime: latency,
		Status:       model.GenerationStatusFailed,
		ErrorMessage: message,
	}
	// The attempt context is usually expired here (timeout is the main
	// failure mode); the entry must not be lost with it
	if err := g.audit.Append(context.WithoutCancel(ctx), entry); err != nil {
		log.Printf("[Generator] failed to write failure audit entry: %v", err)
	}
}

func auditInputs(req GenerationRequest) model.JSONBMap {
	return model.JSONBMap{
		"ingredients": req.Ingredients,
		"options":     req.Options,
	}
}

// notify dispatches the generated-recipe notification to the owning user.
// Notification failure is logged and never fails the operation.
func (g *Generator) notify(ctx context.Context, userID *uuid.UUID, recipe *model.Recipe) {
	if userID == nil || g.notifier == nil {
		return
	}

	// Outlives the attempt context; the recipe is already persisted
	ctx = context.WithoutCancel(ctx)

	var user model.User
	if err := g.db.WithContext(ctx).First(&user, "id = ?", *userID).Error; err != nil {
		log.Printf("[Generator] failed to load user for notification: %v", err)
		return
	}
	if user.Email == "" {
		return
	}

	payload := map[string]interface{}{
		"recipe_id": recipe.ID.String(),
		"slug":      recipe.Slug,
		"title":     recipe.Title,
	}
	if err := g.notifier.Notify(ctx, &user, EventRecipeGenerated, payload); err != nil {
		log.Printf("[Generator] failed to send recipe notification: %v", err)
	}
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a title into a URL-safe slug
func Slugify(title string) string {
	slug := slugInvalid.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// randomSuffix returns n random alphanumeric characters to keep slugs
// unique across identical titles
func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(suffixAlphabet))))
		if err != nil {
			// crypto/rand never fails on supported platforms
			idx = big.NewInt(int64(i % len(suffixAlphabet)))
		}
		b[i] = suffixAlphabet[idx.Int64()]
	}
	return string(b)
}

// MarshalPayload serializes a validated recipe back to JSON, used when an
// existing recipe is sent to the model for modification
func MarshalPayload(recipe *model.Recipe) (json.RawMessage, error) {
	payload := map[string]interface{}{
		"title":        recipe.Title,
		"description":  recipe.Description,
		"cuisine":      recipe.Cuisine,
		"difficulty":   recipe.Difficulty,
		"prep_time":    recipe.PrepTime,
		"cook_time":    recipe.CookTime,
		"servings":     recipe.Servings,
		"ingredients":  recipe.Ingredients,
		"instructions": recipe.Instructions,
	}
	if recipe.NutritionalInfo != nil {
		payload["nutritional_estimate"] = recipe.NutritionalInfo
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recipe payload: %w", err)
	}
	return json.RawMessage(data), nil
}
