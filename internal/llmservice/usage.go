package llmservice

import (
	"github.com/tmc/langchaingo/llms"

	"askpdf/internal/config"
	"askpdf/internal/models"
)

// usageFromGenerationInfo reads the token counters langchaingo providers put
// into a choice's generation info.
func usageFromGenerationInfo(info map[string]any) models.Usage {
	return models.Usage{
		PromptTokens:     intValue(info["PromptTokens"]),
		CompletionTokens: intValue(info["CompletionTokens"]),
		TotalTokens:      intValue(info["TotalTokens"]),
	}
}

// countUsage estimates usage locally when the provider reports none.
func countUsage(model, prompt, completion string) models.Usage {
	p := llms.CountTokens(model, prompt)
	c := llms.CountTokens(model, completion)
	return models.Usage{PromptTokens: p, CompletionTokens: c, TotalTokens: p + c}
}

// EstimateCost prices usage with the configured per-1K token rates.
func EstimateCost(llmConfig *config.LLMConfig, usage models.Usage) float64 {
	return (float64(usage.PromptTokens)*llmConfig.PromptCostPer1K +
		float64(usage.CompletionTokens)*llmConfig.CompletionCostPer1K) / 1000
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
