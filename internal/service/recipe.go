package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pantrychef/backend/internal/model"
)

// ErrNotOwner is returned when a user modifies a recipe they do not own
var ErrNotOwner = errors.New("recipe is owned by another user")

// ErrPremiumRequired is returned when a free-tier user requests a
// premium-gated operation
var ErrPremiumRequired = errors.New("premium subscription required")

// RecipeService handles recipe read/rate/save operations and the
// premium-gated modify flow
type RecipeService struct {
	db        *gorm.DB
	inference InferenceProvider
	clock     Clock
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, inference InferenceProvider, clock Clock) *RecipeService {
	return &RecipeService{db: db, inference: inference, clock: clock}
}

// GetBySlug returns a recipe and increments its view counter
func (s *RecipeService) GetBySlug(ctx context.Context, slug string) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "slug = ?", slug).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&recipe).
		UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		return nil, fmt.Errorf("failed to increment views: %w", err)
	}
	recipe.Views++

	return &recipe, nil
}

// Save increments the save counter for a recipe another user bookmarked
func (s *RecipeService) Save(ctx context.Context, slug string) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "slug = ?", slug).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&recipe).
		UpdateColumn("saves", gorm.Expr("saves + 1")).Error; err != nil {
		return nil, fmt.Errorf("failed to increment saves: %w", err)
	}
	recipe.Saves++

	return &recipe, nil
}

// Rate upserts the user's rating for a recipe and returns the new average
func (s *RecipeService) Rate(ctx context.Context, slug string, userID uuid.UUID, rating *model.RecipeRating) (float64, error) {
	var recipe model.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "slug = ?", slug).Error; err != nil {
		return 0, err
	}

	rating.RecipeID = recipe.ID
	rating.UserID = userID
	if rating.ID == uuid.Nil {
		rating.ID = uuid.New()
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "recipe_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"star_rating", "text_review", "difficulty_verification", "would_make_again", "updated_at",
		}),
	}).Create(rating).Error
	if err != nil {
		return 0, fmt.Errorf("failed to save rating: %w", err)
	}

	var avg float64
	err = s.db.WithContext(ctx).Model(&model.RecipeRating{}).
		Where("recipe_id = ?", recipe.ID).
		Select("AVG(star_rating)").
		Scan(&avg).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute average rating: %w", err)
	}

	return avg, nil
}

// Modify reworks an owned recipe through the model. Premium only; the
// modified payload passes the same structural validation as a fresh
// generation before the row is updated.
func (s *RecipeService) Modify(ctx context.Context, slug string, user *model.User, request string) (*model.Recipe, error) {
	if !user.PremiumActive(s.clock.Now()) {
		return nil, ErrPremiumRequired
	}

	var recipe model.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "slug = ?", slug).Error; err != nil {
		return nil, err
	}

	if recipe.UserID == nil || *recipe.UserID != user.ID {
		return nil, ErrNotOwner
	}

	original, err := MarshalPayload(&recipe)
	if err != nil {
		return nil, err
	}

	payload, err := s.inference.ModifyRecipe(ctx, original, request)
	if err != nil {
		return nil, err
	}

	data, err := ValidateRecipe(payload)
	if err != nil {
		return nil, err
	}

	metadata := recipe.AIMetadata
	if metadata == nil {
		metadata = model.JSONBMap{}
	}
	metadata["modified"] = true
	metadata["modification_request"] = request
	metadata["modified_at"] = s.clock.Now().Format(time.RFC3339)

	recipe.Title = data.Title
	if data.Description != "" {
		recipe.Description = data.Description
	}
	recipe.Cuisine = data.Cuisine
	recipe.Difficulty = data.Difficulty
	recipe.PrepTime = int(data.PrepTime)
	recipe.CookTime = int(data.CookTime)
	recipe.Servings = int(data.Servings)
	recipe.Ingredients = model.JSONBIngredients(data.Ingredients)
	recipe.Instructions = model.JSONBStringArray(data.Instructions)
	if data.NutritionalEstimate != nil {
		recipe.NutritionalInfo = model.JSONBMap(data.NutritionalEstimate)
	}
	recipe.AIMetadata = metadata

	if err := s.db.WithContext(ctx).Save(&recipe).Error; err != nil {
		return nil, fmt.Errorf("failed to save modified recipe: %w", err)
	}

	return &recipe, nil
}

// CreateShoppingList builds a shopping list from a recipe's ingredients
func (s *RecipeService) CreateShoppingList(ctx context.Context, slug string, userID uuid.UUID) (*model.ShoppingList, error) {
	var recipe model.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "slug = ?", slug).Error; err != nil {
		return nil, err
	}

	list := model.ShoppingList{
		ID:     uuid.New(),
		UserID: userID,
		Name:   "Shopping List: " + recipe.Title,
	}
	for _, ing := range recipe.Ingredients {
		list.Items = append(list.Items, model.ShoppingListItem{
			ID:             uuid.New(),
			ShoppingListID: list.ID,
			ItemText:       strings.TrimSpace(fmt.Sprintf("%s %s %s", ing.Amount, ing.Unit, ing.Item)),
			Quantity:       ing.Amount,
			Unit:           ing.Unit,
			StoreCategory:  StoreCategory(ing.Item),
		})
	}

	if err := s.db.WithContext(ctx).Create(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to create shopping list: %w", err)
	}
	return &list, nil
}

var storeCategories = []struct {
	category string
	keywords []string
}{
	{"Meat", []string{"chicken", "beef", "pork", "fish"}},
	{"Dairy", []string{"milk", "cheese", "butter", "yogurt"}},
	{"Produce", []string{"tomato", "onion", "pepper", "carrot"}},
	{"Grains", []string{"pasta", "rice", "bread", "flour"}},
	{"Condiments", []string{"oil", "vinegar", "sauce"}},
}

// StoreCategory assigns an aisle category to an ingredient by keyword
func StoreCategory(ingredient string) string {
	name := strings.ToLower(ingredient)
	for _, sc := range storeCategories {
		for _, kw := range sc.keywords {
			if strings.Contains(name, kw) {
				return sc.category
			}
		}
	}
	return "Other"
}
