package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// RecipeIngredient is a single ingredient line as produced by the model
type RecipeIngredient struct {
	Item   string `json:"item"`
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// JSONBIngredients stores the ingredient list in JSONB
type JSONBIngredients []RecipeIngredient

func (a JSONBIngredients) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

func (a *JSONBIngredients) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBIngredients{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// JSONBMap stores free-form structured metadata in JSONB
type JSONBMap map[string]interface{}

func (m JSONBMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONBMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// Recipe is a persisted, AI-generated recipe. UserID is nullable because
// guests generate ownerless public recipes.
type Recipe struct {
	ID              uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`
	Title           string           `gorm:"size:255;not null" json:"title"`
	Slug            string           `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description     string           `gorm:"type:text" json:"description"`
	UserID          *uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	Cuisine         string           `gorm:"size:50" json:"cuisine"`
	Difficulty      string           `gorm:"size:20" json:"difficulty"`
	PrepTime        int              `json:"prep_time"`
	CookTime        int              `json:"cook_time"`
	Servings        int              `json:"servings"`
	Ingredients     JSONBIngredients `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Instructions    JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	NutritionalInfo JSONBMap         `gorm:"type:jsonb" json:"nutritional_info"`
	AIMetadata      JSONBMap         `gorm:"type:jsonb" json:"ai_metadata"`
	IsPublic        bool             `gorm:"default:true" json:"is_public"`
	Views           int              `gorm:"default:0" json:"views"`
	Saves           int              `gorm:"default:0" json:"saves"`
}

// RecipeRating is one user's rating for a recipe, unique per (recipe, user)
type RecipeRating struct {
	ID                     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
	RecipeID               uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_user" json:"recipe_id"`
	UserID                 uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_user" json:"user_id"`
	StarRating             int       `gorm:"not null;check:star_rating >= 1 AND star_rating <= 5" json:"star_rating"`
	TextReview             string    `gorm:"type:text" json:"text_review"`
	DifficultyVerification string    `gorm:"size:20" json:"difficulty_verification"`
	WouldMakeAgain         bool      `json:"would_make_again"`
}
