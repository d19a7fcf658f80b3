package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiStrategy asks Gemini for a JSON object matching the task output.
type GeminiStrategy struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiStrategy returns nil, nil when apiKey is empty.
func NewGeminiStrategy(ctx context.Context, apiKey, modelName string) (*GeminiStrategy, error) {
	if apiKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("assist: create genai client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.4)
	return &GeminiStrategy{client: client, model: model}, nil
}

func (s *GeminiStrategy) Close() {
	if s != nil && s.client != nil {
		s.client.Close()
	}
}

func (s *GeminiStrategy) Name() string { return "gemini" }

func (s *GeminiStrategy) Generate(ctx context.Context, task Task, payload any) (json.RawMessage, error) {
	prompt, err := buildPrompt(task, payload)
	if err != nil {
		return nil, err
	}
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("assist: gemini generation: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("assist: empty response from gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	raw := extractJSON(text.String())
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: gemini returned non-JSON text", ErrInvalidOutput)
	}
	return raw, nil
}

func buildPrompt(task Task, payload any) (string, error) {
	input, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("assist: encode payload: %w", err)
	}
	switch task {
	case TaskCollectionDescription:
		return "You write catalog copy for a furniture manufacturer. Write a 2-3 sentence description " +
			"of the collection below, in the language of its name. " +
			`Reply with JSON only: {"description": string}.` + "\nCollection: " + string(input), nil
	case TaskTechcardSuggest:
		return "You are a furniture technologist. Propose a bill of materials for the product below. " +
			"Prefer materials from materialsCatalog and copy their name and article exactly. " +
			"Quantities must be positive numbers in the material's unit. " +
			`Reply with JSON only: {"items": [{"name": string, "article": string, "quantity": number, "unit": string}]}.` +
			"\nProduct: " + string(input), nil
	}
	return "", fmt.Errorf("assist: unknown task %q", task)
}

// extractJSON strips markdown fences some models wrap around JSON.
func extractJSON(s string) []byte {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return []byte(strings.TrimSpace(s))
}
