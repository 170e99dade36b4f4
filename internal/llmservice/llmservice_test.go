package llmservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"askpdf/internal/config"
	"askpdf/internal/models"
)

type fakeModel struct {
	response    *llms.ContentResponse
	err         error
	messages    []llms.MessageContent
	temperature float64
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	f.temperature = opts.Temperature
	return f.response, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestBuildPromptContainsChunksAndQuestion(t *testing.T) {
	chunks := []models.ScoredChunk{
		{Chunk: models.Chunk{Content: "first chunk"}},
		{Chunk: models.Chunk{Content: "second chunk"}},
	}
	question := "What is {{.weird}} about <this>?"

	prompt, err := BuildPrompt(chunks, question)
	require.NoError(t, err)
	assert.Contains(t, prompt, "first chunk\n\nsecond chunk")
	assert.Contains(t, prompt, "Question: "+question+"\n")
	assert.True(t, strings.HasPrefix(prompt, "Use the following pieces of context"))
	assert.True(t, strings.HasSuffix(prompt, "Helpful Answer:"))
}

func TestLangchainGeneratorUsesTemperatureAndUsage(t *testing.T) {
	model := &fakeModel{response: &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content: "Beta.",
		GenerationInfo: map[string]any{
			"PromptTokens":     40,
			"CompletionTokens": 2,
			"TotalTokens":      42,
		},
	}}}}
	cfg := config.LLMConfig{Model: "gpt-4o-mini", Temperature: 0.7, PromptCostPer1K: 1, CompletionCostPer1K: 2}

	answer, err := NewLangchainGenerator(model, cfg).Generate(context.Background(), "the prompt")
	require.NoError(t, err)

	assert.Equal(t, "Beta.", answer.Text)
	assert.InDelta(t, 0.7, model.temperature, 1e-9)
	require.Len(t, model.messages, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[0].Role)
	assert.Equal(t, []llms.ContentPart{llms.TextContent{Text: "the prompt"}}, model.messages[0].Parts)
	assert.Equal(t, models.Usage{PromptTokens: 40, CompletionTokens: 2, TotalTokens: 42, EstimatedCostUSD: 0.044}, answer.Usage)
}

func TestLangchainGeneratorCountsTokensWhenMissing(t *testing.T) {
	model := &fakeModel{response: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "an answer"}}}}

	answer, err := NewLangchainGenerator(model, config.LLMConfig{Model: "gpt-4o-mini"}).Generate(context.Background(), "a fairly short prompt")
	require.NoError(t, err)
	assert.Positive(t, answer.Usage.PromptTokens)
	assert.Positive(t, answer.Usage.CompletionTokens)
	assert.Equal(t, answer.Usage.PromptTokens+answer.Usage.CompletionTokens, answer.Usage.TotalTokens)
}

func TestLangchainGeneratorErrors(t *testing.T) {
	boom := errors.New("rate limited")
	_, err := NewLangchainGenerator(&fakeModel{err: boom}, config.LLMConfig{}).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, boom)

	_, err = NewLangchainGenerator(&fakeModel{response: &llms.ContentResponse{}}, config.LLMConfig{}).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewGeneratorUnknownProvider(t *testing.T) {
	_, err := NewGenerator(context.Background(), &config.LLMConfig{Provider: "bard"}, "key")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestOpenAIGeneratorRoundTrip(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Beta."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 30, "completion_tokens": 2, "total_tokens": 32}
		}`))
	}))
	defer srv.Close()

	g, err := NewGenerator(context.Background(), &config.LLMConfig{
		Provider:    config.ProviderOpenAI,
		BaseURL:     srv.URL,
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
	}, "sk-session")
	require.NoError(t, err)

	answer, err := g.Generate(context.Background(), "Question: What is on page 2?")
	require.NoError(t, err)
	assert.Equal(t, "Beta.", answer.Text)
	assert.Equal(t, 32, answer.Usage.TotalTokens)
	assert.Equal(t, "Bearer sk-session", gotAuth)
	assert.InDelta(t, 0.7, gotBody["temperature"], 1e-9)
}
