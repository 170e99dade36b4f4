package models

// Document is an uploaded file, held only for the current session.
type Document struct {
	Filename string
	Data     []byte
}

// Chunk represents a split segment of the document text
type Chunk struct {
	Content string
	Source  string
	ChunkID int
}

// ScoredChunk is a chunk returned by a similarity search
type ScoredChunk struct {
	Chunk
	Score float32
}

// Usage summarises the token consumption of one generation call.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

type Answer struct {
	Text    string        `json:"text"`
	Usage   Usage         `json:"usage"`
	Sources []ScoredChunk `json:"-"`
}

type PromptResponse struct {
	Query   string
	Source  string
	Content string
}
