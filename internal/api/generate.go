package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pantrychef/backend/internal/middleware"
	"github.com/pantrychef/backend/internal/queue"
	"github.com/pantrychef/backend/internal/service"
)

// maxImageSize caps ingredient-detection uploads at 10MB
const maxImageSize = 10 << 20

// GenerationHandler handles recipe generation and ingredient detection
type GenerationHandler struct {
	generator *service.Generator
	quota     service.QuotaChecker
	inference service.InferenceProvider
	queue     *queue.RedisQueue
	auth      middleware.TokenValidator
}

// NewGenerationHandler creates a new GenerationHandler instance
func NewGenerationHandler(generator *service.Generator, quota service.QuotaChecker, inference service.InferenceProvider, q *queue.RedisQueue, auth middleware.TokenValidator) *GenerationHandler {
	return &GenerationHandler{
		generator: generator,
		quota:     quota,
		inference: inference,
		queue:     q,
		auth:      auth,
	}
}

// RegisterRoutes registers the generation routes. Guests are allowed
// through under the guest quota, so auth is optional here.
func (h *GenerationHandler) RegisterRoutes(router *gin.RouterGroup) {
	generate := router.Group("/generate")
	generate.Use(middleware.OptionalAuthMiddleware(h.auth))
	{
		generate.POST("", h.Generate)
		generate.POST("/async", h.GenerateAsync)
		generate.POST("/detect-ingredients", h.DetectIngredients)
		generate.GET("/quota", h.QuotaStatus)
	}
}

// QuotaStatus reports the caller's remaining allowance without charging it
func (h *GenerationHandler) QuotaStatus(c *gin.Context) {
	decision, err := h.quota.Status(c.Request.Context(), service.Requester{
		UserID: contextUserID(c),
		IP:     c.ClientIP(),
	})
	if err != nil {
		log.Printf("[GenerationHandler] quota status failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check quota. Please try again."})
		return
	}

	resp := gin.H{
		"allowed":   decision.Allowed,
		"remaining": decision.Remaining,
		"unlimited": decision.Remaining == service.UnlimitedRemaining,
	}
	if !decision.RetryAt.IsZero() {
		resp["retry_at"] = decision.RetryAt
	}
	c.JSON(http.StatusOK, resp)
}

// Generate handles the synchronous generation path; the caller blocks for
// inference latency
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	genReq := service.GenerationRequest{
		Ingredients: req.Ingredients,
		Options:     req.Options(),
		UserID:      contextUserID(c),
		GuestIP:     c.ClientIP(),
		RequestID:   req.RequestID,
	}

	recipe, err := h.generator.Generate(c.Request.Context(), genReq)
	if err != nil {
		h.renderGenerationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"recipe":   recipe,
		"redirect": "/recipes/" + recipe.Slug,
	})
}

// GenerateAsync charges quota up front and queues the generation for a
// background worker
func (h *GenerationHandler) GenerateAsync(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := contextUserID(c)
	decision, err := h.quota.Check(c.Request.Context(), service.Requester{UserID: userID, IP: c.ClientIP()})
	if err != nil {
		log.Printf("[GenerationHandler] quota check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check quota. Please try again."})
		return
	}
	if !decision.Allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":     decision.Message,
			"remaining": 0,
		})
		return
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	task := &queue.Task{
		Ingredients: req.Ingredients,
		Options:     req.Options(),
		UserID:      userID,
		RequestID:   requestID,
	}
	if err := h.queue.Enqueue(c.Request.Context(), task); err != nil {
		log.Printf("[GenerationHandler] enqueue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue generation. Please try again."})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"request_id": requestID,
		"remaining":  decision.Remaining,
	})
}

// DetectIngredients accepts an uploaded photo and returns detected
// ingredients from the vision model
func (h *GenerationHandler) DetectIngredients(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	defer file.Close()

	if header.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image must be 10MB or smaller"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}

	prepared, err := service.PrepareImage(data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unsupported or corrupt image"})
		return
	}

	detections, err := h.inference.DetectIngredients(c.Request.Context(), prepared)
	if err != nil {
		log.Printf("[GenerationHandler] ingredient detection failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to process image. Please try again or add ingredients manually."})
		return
	}

	if len(detections) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":       "No ingredients detected. Please try a clearer photo or add ingredients manually.",
			"ingredients": []service.Detection{},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ingredients": detections,
		"message":     "Ingredients detected successfully!",
	})
}

// renderGenerationError maps the pipeline error taxonomy onto HTTP
// responses: quota -> 429, bad model output -> 422, transient -> 502
func (h *GenerationHandler) renderGenerationError(c *gin.Context, err error) {
	var quotaErr *service.QuotaExceededError
	if errors.As(err, &quotaErr) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":     quotaErr.Message,
			"remaining": 0,
			"retry_at":  quotaErr.RetryAt,
		})
		return
	}

	var invalidErr *service.InvalidOutputError
	if errors.As(err, &invalidErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to generate recipe. Please adjust your ingredients and try again."})
		return
	}

	var infErr *service.InferenceError
	if errors.As(err, &infErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to generate recipe. Please try again."})
		return
	}

	log.Printf("[GenerationHandler] generation failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate recipe. Please try again."})
}

// contextUserID returns the authenticated user's id, or nil for guests
func contextUserID(c *gin.Context) *uuid.UUID {
	val, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	userID, ok := val.(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}
