package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"askpdf/internal/config"
	"askpdf/internal/gemini"
	"askpdf/internal/models"
)

var (
	ErrUnknownProvider = errors.New("unknown embedding provider")
	ErrVectorCount     = errors.New("embedding count does not match input count")
)

// NewEmbedder creates an embedder for the configured provider, authorised
// with the session credential.
func NewEmbedder(ctx context.Context, llmConfig *config.LLMConfig, credential string) (embeddings.Embedder, error) {
	log.Debug().Interface("config", map[string]string{
		"provider":        llmConfig.Provider,
		"base_url":        llmConfig.BaseURL,
		"embedding_model": llmConfig.Model,
	}).Msg("Creating embedder")

	switch llmConfig.Provider {
	case config.ProviderOpenAI:
		return newOpenAIEmbedder(llmConfig, credential)
	case config.ProviderOllama:
		return newOllamaEmbedder(llmConfig)
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, llmConfig, credential)
		if err != nil {
			return nil, err
		}
		return NewGeminiEmbedder(client, llmConfig.Model), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, llmConfig.Provider)
	}
}

func newOpenAIEmbedder(llmConfig *config.LLMConfig, credential string) (*embeddings.EmbedderImpl, error) {
	opts := []openai.Option{
		openai.WithToken(credential),
		openai.WithEmbeddingModel(llmConfig.Model),
	}
	if llmConfig.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(llmConfig.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize openai client: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

func newOllamaEmbedder(llmConfig *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	opts := []ollama.Option{ollama.WithModel(llmConfig.Model)}
	if llmConfig.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(llmConfig.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama client: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// GenerateEmbeddings embeds every chunk in one EmbedDocuments call and returns
// the vectors in chunk order.
func GenerateEmbeddings(ctx context.Context, embedder embeddings.Embedder, chunks []models.Chunk) ([][]float32, error) {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks to embed")
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d for %d chunks", ErrVectorCount, len(vectors), len(texts))
	}
	log.Debug().Int("vectors", len(vectors)).Msg("Generated embeddings")
	return vectors, nil
}
