package rag

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/textsplitter"

	"askpdf/internal/chromemdb"
	"askpdf/internal/config"
	"askpdf/internal/embedding"
	"askpdf/internal/llmservice"
	"askpdf/internal/models"
	"askpdf/internal/parser"
)

// Index is the query side of a similarity index.
type Index interface {
	Query(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error)
}

type (
	EmbedderFactory  func(ctx context.Context, credential string) (embeddings.Embedder, error)
	GeneratorFactory func(ctx context.Context, credential string) (llmservice.Generator, error)
	IndexBuilder     func(ctx context.Context, chunks []models.Chunk, vectors [][]float32) (Index, error)
)

// RAG holds the stateless parts of the pipeline shared by all sessions.
type RAG struct {
	splitter     textsplitter.TextSplitter
	newEmbedder  EmbedderFactory
	newGenerator GeneratorFactory
	buildIndex   IndexBuilder
	topK         int
}

type Option func(*RAG)

func WithSplitter(s textsplitter.TextSplitter) Option {
	return func(r *RAG) { r.splitter = s }
}

func WithEmbedderFactory(f EmbedderFactory) Option {
	return func(r *RAG) { r.newEmbedder = f }
}

func WithGeneratorFactory(f GeneratorFactory) Option {
	return func(r *RAG) { r.newGenerator = f }
}

func WithIndexBuilder(b IndexBuilder) Option {
	return func(r *RAG) { r.buildIndex = b }
}

// NewRAG wires the configured providers, splitter and chromem index.
func NewRAG(cfg *config.Config, opts ...Option) (*RAG, error) {
	splitter, err := parser.NewCharacterSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap, cfg.RAG.Separator)
	if err != nil {
		return nil, err
	}

	embedCfg, llmCfg := cfg.EmbedLLM, cfg.LLM
	r := &RAG{
		splitter: splitter,
		newEmbedder: func(ctx context.Context, credential string) (embeddings.Embedder, error) {
			return embedding.NewEmbedder(ctx, &embedCfg, credential)
		},
		newGenerator: func(ctx context.Context, credential string) (llmservice.Generator, error) {
			return llmservice.NewGenerator(ctx, &llmCfg, credential)
		},
		buildIndex: func(ctx context.Context, chunks []models.Chunk, vectors [][]float32) (Index, error) {
			return chromemdb.Build(ctx, chunks, vectors)
		},
		topK: cfg.RAG.TopK,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewSession starts an Idle session.
func (r *RAG) NewSession() *Session {
	return &Session{rag: r, state: Idle}
}

func (r *RAG) embedder(ctx context.Context, credential string) (embeddings.Embedder, error) {
	e, err := r.newEmbedder(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: embedder: %w", ErrRemoteService, err)
	}
	return e, nil
}

// index embeds every chunk and builds a fresh index over them.
func (r *RAG) index(ctx context.Context, credential string, chunks []models.Chunk) (Index, error) {
	e, err := r.embedder(ctx, credential)
	if err != nil {
		return nil, err
	}
	vectors, err := embedding.GenerateEmbeddings(ctx, e, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: embed chunks: %w", ErrRemoteService, err)
	}
	idx, err := r.buildIndex(ctx, chunks, vectors)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	return idx, nil
}

// answer retrieves the top chunks for question and asks the model.
func (r *RAG) answer(ctx context.Context, credential string, idx Index, question string) (*models.Answer, error) {
	e, err := r.embedder(ctx, credential)
	if err != nil {
		return nil, err
	}
	queryVector, err := e.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embed question: %w", ErrRemoteService, err)
	}

	docs, err := idx.Query(ctx, queryVector, r.topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	prompt, err := llmservice.BuildPrompt(docs, question)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	gen, err := r.newGenerator(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: generator: %w", ErrRemoteService, err)
	}
	answer, err := gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: generate: %w", ErrRemoteService, err)
	}
	answer.Sources = docs
	return answer, nil
}
