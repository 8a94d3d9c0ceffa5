package api

import "github.com/pantrychef/backend/internal/service"

// GenerateRequest is the payload for the generation endpoints
type GenerateRequest struct {
	Ingredients         []string `json:"ingredients" binding:"required,min=1"`
	Cuisine             string   `json:"cuisine"`
	Difficulty          string   `json:"difficulty"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	Time                string   `json:"time"`
	Servings            int      `json:"servings" binding:"omitempty,min=1,max=10"`
	RequestID           string   `json:"request_id"`
}

// Options converts the request payload into generation options
func (r *GenerateRequest) Options() service.GenerationOptions {
	return service.GenerationOptions{
		Cuisine:             r.Cuisine,
		Difficulty:          r.Difficulty,
		DietaryRestrictions: r.DietaryRestrictions,
		Time:                r.Time,
		Servings:            r.Servings,
	}
}

// RateRequest is the payload for rating a recipe
type RateRequest struct {
	Rating                 int    `json:"rating" binding:"required,min=1,max=5"`
	Review                 string `json:"review" binding:"omitempty,max=1000"`
	DifficultyVerification string `json:"difficulty_verification"`
	WouldMakeAgain         bool   `json:"would_make_again"`
}

// ModifyRequest is the payload for the premium recipe-modify endpoint
type ModifyRequest struct {
	Modification string `json:"modification" binding:"required,max=500"`
}

// RegisterRequest is the payload for account creation
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the payload for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
