package parser

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"askpdf/internal/models"
)

// ErrInvalidChunkConfig is returned for a size/overlap pair that cannot make progress.
var ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

// CharacterSplitter cuts text into windows of at most ChunkSize characters.
// Every window starts with the last ChunkOverlap characters of the previous
// one, so dropping that prefix from all but the first chunk gives back the
// original text. A window ends right after the last Separator it contains,
// or at ChunkSize when there is none.
type CharacterSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separator    string
}

var _ textsplitter.TextSplitter = (*CharacterSplitter)(nil)

func NewCharacterSplitter(chunkSize, chunkOverlap int, separator string) (*CharacterSplitter, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: size %d, overlap %d", ErrInvalidChunkConfig, chunkSize, chunkOverlap)
	}
	return &CharacterSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separator:    separator,
	}, nil
}

// SplitText lengths are counted in runes.
func (s *CharacterSplitter) SplitText(text string) ([]string, error) {
	runes := []rune(text)
	if len(runes) <= s.ChunkSize {
		return []string{text}, nil
	}

	var chunks []string
	start := 0
	for len(runes)-start > s.ChunkSize {
		end := start + s.ChunkSize
		// the cut must leave more than the overlap behind, or start would not advance
		if cut := s.lastSeparatorEnd(runes, start, start+s.ChunkOverlap+1, end); cut > 0 {
			end = cut
		}
		chunks = append(chunks, string(runes[start:end]))
		start = end - s.ChunkOverlap
	}
	return append(chunks, string(runes[start:])), nil
}

// lastSeparatorEnd finds the largest e in [minEnd, maxEnd] such that a separator
// ends at e and begins at or after windowStart. It returns -1 if there is none.
func (s *CharacterSplitter) lastSeparatorEnd(runes []rune, windowStart, minEnd, maxEnd int) int {
	sep := []rune(s.Separator)
	if len(sep) == 0 {
		return -1
	}
	for e := maxEnd; e >= minEnd && e-len(sep) >= windowStart; e-- {
		if equalRunes(runes[e-len(sep):e], sep) {
			return e
		}
	}
	return -1
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Split turns document text into ordered chunks tagged with their source.
func Split(splitter textsplitter.TextSplitter, source, text string) ([]models.Chunk, error) {
	docs, err := textsplitter.CreateDocuments(splitter, []string{text}, []map[string]any{{models.SourceKey: source}})
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %w", err)
	}

	chunks := make([]models.Chunk, 0, len(docs))
	for i, doc := range docs {
		chunks = append(chunks, models.Chunk{
			Content: doc.PageContent,
			Source:  source,
			ChunkID: i + 1,
		})
	}
	log.Debug().Str("source", source).Int("chunks", len(chunks)).Msg("Split document")
	return chunks, nil
}
