package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// Default option values applied before hashing and prompting
const (
	DefaultCuisine    = "Any"
	DefaultDifficulty = "medium"
	DefaultTime       = "Any"
	DefaultServings   = 2
)

// GenerationOptions are the user-supplied constraints for a generation
type GenerationOptions struct {
	Cuisine             string   `json:"cuisine,omitempty"`
	Difficulty          string   `json:"difficulty,omitempty"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
	Time                string   `json:"time,omitempty"`
	Servings            int      `json:"servings,omitempty"`
}

// Normalized returns a copy with defaults applied and dietary restrictions
// sorted, so that omitted and explicit-default options hash identically.
func (o GenerationOptions) Normalized() GenerationOptions {
	n := o
	if n.Cuisine == "" {
		n.Cuisine = DefaultCuisine
	}
	if n.Difficulty == "" {
		n.Difficulty = DefaultDifficulty
	}
	if n.Time == "" {
		n.Time = DefaultTime
	}
	if n.Servings == 0 {
		n.Servings = DefaultServings
	}
	if len(o.DietaryRestrictions) > 0 {
		n.DietaryRestrictions = append([]string(nil), o.DietaryRestrictions...)
		sort.Strings(n.DietaryRestrictions)
	} else {
		n.DietaryRestrictions = nil
	}
	return n
}

// cacheKeyPayload is the canonical structure hashed into a cache key
type cacheKeyPayload struct {
	Ingredients         []string `json:"ingredients"`
	Cuisine             string   `json:"cuisine"`
	Difficulty          string   `json:"difficulty"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	Time                string   `json:"time"`
	Servings            int      `json:"servings"`
}

// DeriveKey canonicalizes a generation request into a stable content hash.
// Ingredient order does not affect the key; option fields are defaulted
// before hashing. The hash is sha256 of the canonical JSON encoding.
func DeriveKey(ingredients []string, options GenerationOptions) string {
	sorted := append([]string(nil), ingredients...)
	sort.Strings(sorted)

	opts := options.Normalized()
	payload := cacheKeyPayload{
		Ingredients:         sorted,
		Cuisine:             opts.Cuisine,
		Difficulty:          opts.Difficulty,
		DietaryRestrictions: opts.DietaryRestrictions,
		Time:                opts.Time,
		Servings:            opts.Servings,
	}

	// Marshal of a flat struct with no custom types cannot fail
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
