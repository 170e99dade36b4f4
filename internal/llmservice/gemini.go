package llmservice

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"askpdf/internal/config"
	"askpdf/internal/models"
)

// GeminiGenerator requests completions from the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	cfg    config.LLMConfig
}

func NewGeminiGenerator(client *genai.Client, llmConfig config.LLMConfig) *GeminiGenerator {
	return &GeminiGenerator{client: client, cfg: llmConfig}
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (*models.Answer, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(g.cfg.Temperature)),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini api call failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	var text strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			text.WriteString(p.Text)
		}
	}

	var usage models.Usage
	if um := result.UsageMetadata; um != nil {
		usage = models.Usage{
			PromptTokens:     int(um.PromptTokenCount),
			CompletionTokens: int(um.CandidatesTokenCount),
			TotalTokens:      int(um.TotalTokenCount),
		}
	} else {
		usage = countUsage(g.cfg.Model, prompt, text.String())
	}
	usage.EstimatedCostUSD = EstimateCost(&g.cfg, usage)

	return &models.Answer{Text: text.String(), Usage: usage}, nil
}
