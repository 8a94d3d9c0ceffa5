package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pantrychef/backend/internal/model"
)

// FlexInt can handle both string and number values, since models are not
// consistent about numeric fields
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexInt(int(num))
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		n, err := strconv.Atoi(strings.TrimSpace(str))
		if err != nil {
			return fmt.Errorf("invalid numeric value %q", str)
		}
		*f = FlexInt(n)
		return nil
	}

	return fmt.Errorf("invalid numeric format")
}

// RecipeData is the validated, strongly-typed form of a model response
type RecipeData struct {
	Title               string                   `json:"title"`
	Description         string                   `json:"description"`
	Cuisine             string                   `json:"cuisine"`
	Difficulty          string                   `json:"difficulty"`
	PrepTime            FlexInt                  `json:"prep_time"`
	CookTime            FlexInt                  `json:"cook_time"`
	Servings            FlexInt                  `json:"servings"`
	Ingredients         []model.RecipeIngredient `json:"ingredients"`
	Instructions        []string                 `json:"instructions"`
	NutritionalEstimate map[string]interface{}   `json:"nutritional_estimate"`
	Tags                []string                 `json:"tags"`
}

// requiredFields must all be present and non-null in a model payload
var requiredFields = []string{
	"title", "description", "cuisine", "difficulty",
	"prep_time", "cook_time", "servings", "ingredients", "instructions",
}

// ValidateRecipe structurally verifies a model payload before it is
// trusted. Validation is presence and shape only; the model is trusted for
// content. An InvalidOutputError carries the first violation found.
func ValidateRecipe(raw json.RawMessage) (*RecipeData, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &InvalidOutputError{Reason: "payload is not a JSON object"}
	}

	for _, name := range requiredFields {
		value, ok := fields[name]
		if !ok || string(value) == "null" {
			return nil, &InvalidOutputError{Reason: fmt.Sprintf("missing required field %q", name)}
		}
	}

	if reason := checkNonEmptyArray(fields["ingredients"], "ingredients"); reason != "" {
		return nil, &InvalidOutputError{Reason: reason}
	}
	if reason := checkNonEmptyArray(fields["instructions"], "instructions"); reason != "" {
		return nil, &InvalidOutputError{Reason: reason}
	}

	if value, ok := fields["nutritional_estimate"]; ok && string(value) != "null" {
		var estimate map[string]interface{}
		if err := json.Unmarshal(value, &estimate); err != nil {
			return nil, &InvalidOutputError{Reason: "nutritional_estimate must be a structured mapping"}
		}
	}

	var data RecipeData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &InvalidOutputError{Reason: fmt.Sprintf("malformed field: %v", err)}
	}

	return &data, nil
}

func checkNonEmptyArray(raw json.RawMessage, name string) string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Sprintf("%s must be a list", name)
	}
	if len(items) == 0 {
		return fmt.Sprintf("%s must not be empty", name)
	}
	return ""
}
