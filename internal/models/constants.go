package models

const (
	ContextSeparator = "\n\n"
	SourceKey        = "source"
	ChunkIDKey       = "chunk_id"
)

var (
	// QAPromptTemplate is a go text/template rendered with "context" and "question".
	QAPromptTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

{{.context}}

Question: {{.question}}
Helpful Answer:`
)
