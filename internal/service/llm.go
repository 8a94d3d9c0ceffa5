package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pantrychef/backend/config"
)

// Detection is one ingredient recognized in an uploaded photo
type Detection struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Message represents a message in the chat. Content is a string for text
// messages or a []ContentPart for vision requests.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

// ContentPart is one element of a multi-part vision message
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an image as a base64 data URL
type ImageURL struct {
	URL string `json:"url"`
}

// Request represents a chat-completions request to the inference API
type Request struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
}

// InferenceClient wraps the OpenAI-compatible chat-completions API. Each
// call is a single remote round trip; failures are converted to
// *InferenceError and never retried at this layer.
type InferenceClient struct {
	apiKey      string
	apiURL      string
	model       string
	visionModel string
	client      *http.Client
}

// NewInferenceClient creates a new InferenceClient instance
func NewInferenceClient(cfg *config.Config) *InferenceClient {
	return &InferenceClient{
		apiKey:      cfg.LLMAPIKey,
		apiURL:      cfg.LLMAPIURL,
		model:       cfg.LLMModel,
		visionModel: cfg.LLMVisionModel,
		client: &http.Client{
			Timeout: cfg.GenerateTimeout,
		},
	}
}

// Model returns the identifier of the text generation model
func (s *InferenceClient) Model() string {
	return s.model
}

// GenerateRecipe requests a JSON-shaped recipe for the given ingredients
// and constraints. It returns the raw model payload without validating its
// structure; that is the validator's job.
func (s *InferenceClient) GenerateRecipe(ctx context.Context, ingredients []string, options GenerationOptions) (json.RawMessage, error) {
	opts := options.Normalized()

	prompt := fmt.Sprintf(`You are a professional chef. Generate a detailed recipe using these ingredients: %s.

Requirements:
- Dietary restrictions: %s
- Cuisine preference: %s
- Difficulty: %s
- Time constraint: %s
- Servings: %d

Return a JSON object with this exact structure:
{
  "title": "Recipe name",
  "description": "Brief description",
  "cuisine": "Cuisine type",
  "difficulty": "easy|medium|hard",
  "prep_time": minutes,
  "cook_time": minutes,
  "servings": number,
  "ingredients": [
    {"item": "ingredient name", "amount": "quantity", "unit": "measurement"}
  ],
  "instructions": [
    "Step 1 text",
    "Step 2 text"
  ],
  "nutritional_estimate": {
    "calories": per_serving,
    "protein": grams,
    "carbs": grams,
    "fat": grams
  },
  "tags": ["tag1", "tag2"]
}`,
		strings.Join(ingredients, ", "),
		strings.Join(opts.DietaryRestrictions, ", "),
		opts.Cuisine,
		opts.Difficulty,
		opts.Time,
		opts.Servings,
	)

	messages := []Message{
		{
			Role:    "system",
			Content: "You are a professional chef who provides high-quality recipes in JSON format.",
		},
		{
			Role:    "user",
			Content: prompt,
		},
	}

	return s.complete(ctx, "generate", s.model, messages)
}

// ModifyRecipe asks the model to rework an existing recipe according to a
// user request, keeping the same JSON structure
func (s *InferenceClient) ModifyRecipe(ctx context.Context, original json.RawMessage, request string) (json.RawMessage, error) {
	prompt := fmt.Sprintf(`Original recipe: %s

User request: %s

Modify the recipe according to the request while maintaining:
- Similar taste profile
- Reasonable ingredient substitutions
- Clear cooking instructions
- Accurate nutritional recalculation

Return the modified recipe in the same JSON format.`, string(original), request)

	messages := []Message{
		{
			Role:    "system",
			Content: "You are a professional chef who modifies recipes in JSON format.",
		},
		{
			Role:    "user",
			Content: prompt,
		},
	}

	return s.complete(ctx, "modify", s.model, messages)
}

// DetectIngredients submits a photo to the vision model and returns raw
// detections. The caller is responsible for resizing the image first.
func (s *InferenceClient) DetectIngredients(ctx context.Context, image []byte) ([]Detection, error) {
	messages := []Message{
		{
			Role: "user",
			Content: []ContentPart{
				{
					Type: "text",
					Text: `Identify all food ingredients in this image. Return a JSON array with ingredient names and confidence scores. Format: {"ingredients": [{"name": "item", "confidence": 0.9}]}`,
				},
				{
					Type: "image_url",
					ImageURL: &ImageURL{
						URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image),
					},
				},
			},
		},
	}

	content, err := s.complete(ctx, "detect", s.visionModel, messages)
	if err != nil {
		return nil, err
	}

	var result struct {
		Ingredients []Detection `json:"ingredients"`
	}
	if err := json.Unmarshal(content, &result); err != nil {
		return nil, &InferenceError{Op: "detect", Err: fmt.Errorf("failed to parse detections: %w", err)}
	}

	return result.Ingredients, nil
}

// complete performs one chat-completions round trip and returns the first
// choice's content, which must be valid JSON
func (s *InferenceClient) complete(ctx context.Context, op, model string, messages []Message) (json.RawMessage, error) {
	reqBody := Request{
		Model:    model,
		Messages: messages,
		ResponseFormat: map[string]string{
			"type": "json_object",
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &InferenceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &InferenceError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &InferenceError{Op: op, Err: fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &InferenceError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if len(result.Choices) == 0 {
		return nil, &InferenceError{Op: op, Err: fmt.Errorf("no choices in API response")}
	}

	content := []byte(result.Choices[0].Message.Content)
	if !json.Valid(content) {
		return nil, &InferenceError{Op: op, Err: fmt.Errorf("model returned non-JSON content")}
	}

	return json.RawMessage(content), nil
}
