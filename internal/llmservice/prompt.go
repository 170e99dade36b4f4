package llmservice

import (
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"askpdf/internal/models"
)

var qaPrompt = prompts.NewPromptTemplate(models.QAPromptTemplate, []string{"context", "question"})

// BuildPrompt stuffs every retrieved chunk, in the given order, into the
// question-answering template. The question is inserted verbatim.
func BuildPrompt(chunks []models.ScoredChunk, question string) (string, error) {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return qaPrompt.Format(map[string]any{
		"context":  strings.Join(parts, models.ContextSeparator),
		"question": question,
	})
}
