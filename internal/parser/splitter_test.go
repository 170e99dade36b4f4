package parser

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reassemble(chunks []string, overlap int) string {
	var out []rune
	for i, chunk := range chunks {
		r := []rune(chunk)
		if i > 0 {
			r = r[overlap:]
		}
		out = append(out, r...)
	}
	return string(out)
}

func randomText(rng *rand.Rand, n int) string {
	words := []string{"alpha", "beta", "γάμμα", "delta", "日本語", "x", "\n", "\n", " ", "."}
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(words[rng.Intn(len(words))])
		if rng.Intn(3) == 0 {
			b.WriteString(" ")
		}
	}
	return b.String()
}

func TestCharacterSplitterProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	configs := []struct{ size, overlap int }{
		{1000, 200},
		{10, 3},
		{50, 0},
		{7, 6},
		{64, 63},
	}
	for _, cfg := range configs {
		s, err := NewCharacterSplitter(cfg.size, cfg.overlap, "\n")
		require.NoError(t, err)

		for i := 0; i < 25; i++ {
			text := randomText(rng, rng.Intn(5000))
			chunks, err := s.SplitText(text)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			for j, c := range chunks {
				assert.LessOrEqual(t, len([]rune(c)), cfg.size, "chunk %d too long", j)
			}
			for j := 1; j < len(chunks); j++ {
				prev, next := []rune(chunks[j-1]), []rune(chunks[j])
				require.GreaterOrEqual(t, len(prev), cfg.overlap)
				require.GreaterOrEqual(t, len(next), cfg.overlap)
				assert.Equal(t, string(prev[len(prev)-cfg.overlap:]), string(next[:cfg.overlap]))
			}
			assert.Equal(t, text, reassemble(chunks, cfg.overlap))
		}
	}
}

func TestCharacterSplitterShortTextIsOneChunk(t *testing.T) {
	s, err := NewCharacterSplitter(1000, 200, "\n")
	require.NoError(t, err)

	for _, text := range []string{"", "Alpha.\nBeta.\nGamma.", strings.Repeat("a", 1000)} {
		chunks, err := s.SplitText(text)
		require.NoError(t, err)
		assert.Equal(t, []string{text}, chunks)
	}
}

func TestCharacterSplitterPrefersSeparator(t *testing.T) {
	s, err := NewCharacterSplitter(8, 2, "\n")
	require.NoError(t, err)

	chunks, err := s.SplitText("aaaa\nbbbb\ncccc")
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa\n", "a\nbbbb\n", "b\ncccc"}, chunks)
}

func TestCharacterSplitterHardCut(t *testing.T) {
	s, err := NewCharacterSplitter(4, 1, "\n")
	require.NoError(t, err)

	chunks, err := s.SplitText("abcdefghij")
	require.NoError(t, err)
	assert.Equal(t, []string{"abcd", "defg", "ghij"}, chunks)
}

func TestNewCharacterSplitterRejectsBadConfig(t *testing.T) {
	for _, cfg := range []struct{ size, overlap int }{{0, 0}, {10, 10}, {10, 20}, {10, -1}} {
		_, err := NewCharacterSplitter(cfg.size, cfg.overlap, "\n")
		assert.ErrorIs(t, err, ErrInvalidChunkConfig)
	}
}

func TestSplitNumbersChunksInOrder(t *testing.T) {
	s, err := NewCharacterSplitter(4, 1, "")
	require.NoError(t, err)

	chunks, err := Split(s, "notes.pdf", "abcdefghij")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, c := range chunks {
		assert.Equal(t, i+1, c.ChunkID)
		assert.Equal(t, "notes.pdf", c.Source)
	}
	assert.Equal(t, "defg", chunks[1].Content)
}
