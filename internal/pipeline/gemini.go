package pipeline

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// VisionModel is the model-provider boundary. One call per invocation; the
// reply is the model's raw text, fences and all.
type VisionModel interface {
	GenerateFromImage(ctx context.Context, prompt string, jpegBytes []byte) (string, error)
}

// GeminiModel implements VisionModel against the Gemini API.
type GeminiModel struct {
	apiKey    string
	modelName string
}

// NewGeminiModel creates a Gemini-backed vision model.
func NewGeminiModel(apiKey, modelName string) *GeminiModel {
	if modelName == "" {
		modelName = DefaultModelName
	}
	return &GeminiModel{apiKey: apiKey, modelName: modelName}
}

// GenerateFromImage sends the instruction prompt plus the inline JPEG to
// Gemini and returns the text of the first candidate. Upstream failures are
// translated into the pipeline error taxonomy: non-success replies become
// UpstreamError with status and body, an exceeded deadline becomes
// ErrUpstreamTimeout, and a reply with no candidates becomes ErrEmptyResponse.
func (m *GeminiModel) GenerateFromImage(ctx context.Context, prompt string, jpegBytes []byte) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  m.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("GenerateFromImage: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: "image/jpeg",
						Data:     jpegBytes,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, m.modelName, contents, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", ErrUpstreamTimeout
		}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{Status: apiErr.Code, Body: apiErr.Message}
		}
		return "", fmt.Errorf("GenerateFromImage: generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}
