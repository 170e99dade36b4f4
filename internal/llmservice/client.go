package llmservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"askpdf/internal/config"
	"askpdf/internal/gemini"
	"askpdf/internal/models"
)

var (
	ErrUnknownProvider = errors.New("unknown generation provider")
	ErrEmptyResponse   = errors.New("model returned no choices")
)

// Generator requests a free-text completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*models.Answer, error)
}

// NewGenerator creates a generator for the configured provider, authorised
// with the session credential.
func NewGenerator(ctx context.Context, llmConfig *config.LLMConfig, credential string) (Generator, error) {
	log.Debug().Interface("config", map[string]any{
		"provider":    llmConfig.Provider,
		"base_url":    llmConfig.BaseURL,
		"model":       llmConfig.Model,
		"temperature": llmConfig.Temperature,
	}).Msg("Creating generator")

	switch llmConfig.Provider {
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(credential),
			openai.WithModel(llmConfig.Model),
		}
		if llmConfig.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize openai client: %w", err)
		}
		return NewLangchainGenerator(llm, *llmConfig), nil
	case config.ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
		if llmConfig.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
		}
		return NewLangchainGenerator(llm, *llmConfig), nil
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, llmConfig, credential)
		if err != nil {
			return nil, err
		}
		return NewGeminiGenerator(client, *llmConfig), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, llmConfig.Provider)
	}
}

// LangchainGenerator drives any langchaingo model with a single human message.
type LangchainGenerator struct {
	llm llms.Model
	cfg config.LLMConfig
}

func NewLangchainGenerator(llm llms.Model, llmConfig config.LLMConfig) *LangchainGenerator {
	return &LangchainGenerator{llm: llm, cfg: llmConfig}
}

func (g *LangchainGenerator) Generate(ctx context.Context, prompt string) (*models.Answer, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	res, err := GenerateContent(ctx, g.llm, messages, llms.WithTemperature(g.cfg.Temperature))
	if err != nil {
		return nil, err
	}
	if len(res.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choice := res.Choices[0]
	usage := usageFromGenerationInfo(choice.GenerationInfo)
	if usage.TotalTokens == 0 {
		usage = countUsage(g.cfg.Model, prompt, choice.Content)
	}
	usage.EstimatedCostUSD = EstimateCost(&g.cfg, usage)

	return &models.Answer{Text: choice.Content, Usage: usage}, nil
}

// call llm
func GenerateContent(ctx context.Context, llm llms.Model, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	log.Debug().Int("messages", len(messages)).Msg("Generating content")
	return llm.GenerateContent(ctx, messages, opts...)
}
