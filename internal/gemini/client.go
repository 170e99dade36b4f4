package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"askpdf/internal/config"
)

// NewClient creates a Gemini API client authorised with the session credential.
func NewClient(ctx context.Context, llmConfig *config.LLMConfig, credential string) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  credential,
		Backend: genai.BackendGeminiAPI,
	}
	if llmConfig.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: llmConfig.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}
