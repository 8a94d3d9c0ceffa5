package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pantrychef/backend/internal/middleware"
	"github.com/pantrychef/backend/internal/model"
	"github.com/pantrychef/backend/internal/service"
)

// RecipeHandler handles recipe read, rate, save, and modify requests
type RecipeHandler struct {
	db      *gorm.DB
	recipes *service.RecipeService
	auth    middleware.TokenValidator
}

// NewRecipeHandler creates a new RecipeHandler instance
func NewRecipeHandler(db *gorm.DB, recipes *service.RecipeService, auth middleware.TokenValidator) *RecipeHandler {
	return &RecipeHandler{db: db, recipes: recipes, auth: auth}
}

// RegisterRoutes registers the recipe routes
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("/:slug", h.Show)

		authed := recipes.Group("")
		authed.Use(middleware.AuthMiddleware(h.auth))
		{
			authed.POST("/:slug/rate", h.Rate)
			authed.POST("/:slug/save", h.Save)
			authed.POST("/:slug/modify", h.Modify)
			authed.POST("/:slug/shopping-list", h.ShoppingList)
		}
	}
}

// Show returns a recipe by slug and counts the view
func (h *RecipeHandler) Show(c *gin.Context) {
	recipe, err := h.recipes.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recipe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

// Rate records the user's rating and returns the new average
func (h *RecipeHandler) Rate(c *gin.Context) {
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := contextUserID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rating := &model.RecipeRating{
		StarRating:             req.Rating,
		TextReview:             req.Review,
		DifficultyVerification: req.DifficultyVerification,
		WouldMakeAgain:         req.WouldMakeAgain,
	}

	avg, err := h.recipes.Rate(c.Request.Context(), c.Param("slug"), *userID, rating)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save rating"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Recipe rated successfully!",
		"rating":         rating,
		"average_rating": avg,
	})
}

// Save bookmarks a recipe by incrementing its save counter
func (h *RecipeHandler) Save(c *gin.Context) {
	recipe, err := h.recipes.Save(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save recipe"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe saved successfully!",
		"saves":   recipe.Saves,
	})
}

// Modify reworks an owned recipe through the model (premium feature)
func (h *RecipeHandler) Modify(c *gin.Context) {
	var req ModifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := contextUserID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var user model.User
	if err := h.db.First(&user, "id = ?", *userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	recipe, err := h.recipes.Modify(c.Request.Context(), c.Param("slug"), &user, req.Modification)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPremiumRequired):
			c.JSON(http.StatusForbidden, gin.H{"error": "Premium feature. Upgrade to modify recipes."})
		case errors.Is(err, service.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only modify your own recipes."})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to modify recipe. Please try again."})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe modified successfully!",
		"recipe":  recipe,
	})
}

// ShoppingList creates a shopping list from the recipe's ingredients
func (h *RecipeHandler) ShoppingList(c *gin.Context) {
	userID := contextUserID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	list, err := h.recipes.CreateShoppingList(c.Request.Context(), c.Param("slug"), *userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create shopping list"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Shopping list created successfully!",
		"shopping_list": list,
	})
}
