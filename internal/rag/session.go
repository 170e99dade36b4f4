package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"askpdf/internal/models"
	"askpdf/internal/parser"
)

type State int

const (
	Idle State = iota
	DocumentLoaded
	Answering
	AnswerShown
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case DocumentLoaded:
		return "document_loaded"
	case Answering:
		return "answering"
	case AnswerShown:
		return "answer_shown"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is one user's view of the pipeline: at most one document, its
// index, and the outcome of the last question. Calls are serialized.
type Session struct {
	rag *RAG

	mu       sync.Mutex
	state    State
	filename string
	chunks   []models.Chunk
	index    Index
	answer   *models.Answer
	err      error
}

// Load replaces the session's document. The index is built right away when a
// credential is given, otherwise on the first Ask.
func (s *Session) Load(ctx context.Context, credential, filename string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filename, s.chunks, s.index, s.answer, s.err = "", nil, nil, nil, nil

	text, err := parser.LoadDocument(filename, data)
	if err != nil {
		return s.fail(err)
	}
	if strings.TrimSpace(text) == "" {
		return s.fail(fmt.Errorf("%w: %s", ErrEmptyDocument, filename))
	}

	chunks, err := parser.Split(s.rag.splitter, filename, text)
	if err != nil {
		return s.fail(err)
	}
	s.filename, s.chunks = filename, chunks

	if credential != "" {
		idx, err := s.rag.index(ctx, credential, chunks)
		if err != nil {
			return s.fail(err)
		}
		s.index = idx
	}

	s.state = DocumentLoaded
	log.Info().Str("filename", filename).Int("chunks", len(chunks)).Bool("indexed", s.index != nil).Msg("Document loaded")
	return nil
}

// Ask answers question from the loaded document. A missing document or
// credential is reported without touching the session state.
func (s *Session) Ask(ctx context.Context, credential, question string) (*models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chunks == nil {
		return nil, ErrNoDocument
	}
	if credential == "" {
		return nil, ErrMissingCredential
	}

	s.state = Answering
	if s.index == nil {
		idx, err := s.rag.index(ctx, credential, s.chunks)
		if err != nil {
			return nil, s.fail(err)
		}
		s.index = idx
	}

	answer, err := s.rag.answer(ctx, credential, s.index, question)
	if err != nil {
		return nil, s.fail(err)
	}

	s.state, s.answer, s.err = AnswerShown, answer, nil
	log.Info().
		Str("filename", s.filename).
		Int("sources", len(answer.Sources)).
		Int("total_tokens", answer.Usage.TotalTokens).
		Float64("estimated_cost_usd", answer.Usage.EstimatedCostUSD).
		Msg("Question answered")
	return answer, nil
}

func (s *Session) fail(err error) error {
	s.state, s.answer, s.err = Error, nil, err
	log.Error().Err(err).Str("filename", s.filename).Msg("Request failed")
	return err
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Document returns the loaded filename and chunk count; ok is false when
// there is none.
func (s *Session) Document() (filename string, chunks int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filename, len(s.chunks), s.chunks != nil
}

// LastAnswer returns the last answer and the last error, at most one non-nil.
func (s *Session) LastAnswer() (*models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answer, s.err
}
