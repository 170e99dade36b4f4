package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"askpdf/internal/models"
)

var (
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	errNoEmbeddingFunc   = errors.New("index only accepts precomputed embeddings")
)

const collectionName = "document"

// Index is an in-memory similarity index over the chunks of one document.
// It is built once and only queried afterwards.
type Index struct {
	collection *chromem.Collection
	chunks     map[string]models.Chunk
	dimension  int
}

// Build creates a fresh in-memory chromem database holding one document per
// chunk, using the precomputed vectors.
func Build(ctx context.Context, chunks []models.Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: %d chunks, %d vectors", ErrDimensionMismatch, len(chunks), len(vectors))
	}

	dimension := 0
	if len(vectors) > 0 {
		dimension = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dimension {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(v), dimension)
		}
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(collectionName, nil, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %v", err)
	}

	idx := &Index{
		collection: collection,
		chunks:     make(map[string]models.Chunk, len(chunks)),
		dimension:  dimension,
	}
	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		id := strconv.Itoa(chunk.ChunkID)
		idx.chunks[id] = chunk
		docs[i] = chromem.Document{
			ID:      id,
			Content: chunk.Content,
			Metadata: map[string]string{
				models.SourceKey:  chunk.Source,
				models.ChunkIDKey: id,
			},
			Embedding: vectors[i],
		}
	}
	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return nil, fmt.Errorf("failed to add documents: %v", err)
		}
	}

	log.Debug().Int("documents", collection.Count()).Int("dimension", dimension).Msg("Built index")
	return idx, nil
}

// Size returns the number of indexed chunks.
func (idx *Index) Size() int {
	return idx.collection.Count()
}

// Query returns at most k chunks ordered by descending cosine similarity to vector.
func (idx *Index) Query(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error) {
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimensionMismatch, len(vector), idx.dimension)
	}

	// chromem rejects nResults larger than the collection
	n := min(k, idx.collection.Count())
	if n <= 0 {
		return nil, nil
	}

	results, err := idx.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	scored := make([]models.ScoredChunk, 0, len(results))
	for _, r := range results {
		scored = append(scored, models.ScoredChunk{
			Chunk: idx.chunks[r.ID],
			Score: r.Similarity,
		})
	}
	return scored, nil
}

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}
