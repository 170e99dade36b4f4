package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askpdf/internal/models"
	"askpdf/internal/rag"
)

type fakeSession struct {
	loaded      []string
	credentials []string
	askErr      error
}

func (f *fakeSession) Load(_ context.Context, credential, filename string, _ []byte) error {
	f.loaded = append(f.loaded, filename)
	f.credentials = append(f.credentials, credential)
	return nil
}

func (f *fakeSession) Ask(_ context.Context, credential, _ string) (*models.Answer, error) {
	f.credentials = append(f.credentials, credential)
	if f.askErr != nil {
		return nil, f.askErr
	}
	if credential == "" {
		return nil, rag.ErrMissingCredential
	}
	return &models.Answer{Text: "Beta."}, nil
}

func newModel(session SessionPort, defaultCredential string) Model {
	m := New(session, defaultCredential)
	m.readFile = func(string) ([]byte, error) { return []byte("%PDF"), nil }
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func TestLoadAndAsk(t *testing.T) {
	session := &fakeSession{}
	m := newModel(session, "")

	m = typeText(t, m, "/tmp/three.pdf")
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, fieldKey, m.focus)
	m = typeText(t, m, "sk-valid")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.busy)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Processing...")

	// keys are ignored while busy
	busy, _ := update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, fieldKey, busy.focus)

	msg := m.loadDocument("/tmp/three.pdf", m.credential())()
	m, _ = update(t, m, msg)
	assert.False(t, m.busy)
	assert.Equal(t, "three.pdf", m.filename)
	assert.Equal(t, fieldQuestion, m.focus)
	assert.Equal(t, []string{"three.pdf"}, session.loaded)

	m = typeText(t, m, "What is on page 2?")
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	m, _ = update(t, m, m.askQuestion(m.credential(), "What is on page 2?")())
	assert.False(t, m.busy)
	require.NotNil(t, m.answer)
	assert.Equal(t, "Beta.", m.answer.Text)
	assert.Equal(t, statusSuccess, m.kind)
	assert.Contains(t, m.View(), "Beta.")
	assert.Equal(t, []string{"sk-valid", "sk-valid"}, session.credentials)
}

func TestMissingCredentialIsWarning(t *testing.T) {
	m := newModel(&fakeSession{}, "")

	m, _ = update(t, m, m.askQuestion(m.credential(), "anything")())
	assert.Equal(t, statusWarning, m.kind)
	assert.Equal(t, "Please insert OpenAI API Key.", m.status)
	assert.Nil(t, m.answer)
}

func TestDefaultCredential(t *testing.T) {
	m := newModel(&fakeSession{}, "sk-env")
	assert.Equal(t, "sk-env", m.credential())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "sk-typed")
	assert.Equal(t, "sk-typed", m.credential())
}

func TestAskErrorShown(t *testing.T) {
	m := newModel(&fakeSession{askErr: errors.New("quota exceeded")}, "sk")

	m, _ = update(t, m, m.askQuestion("sk", "q")())
	assert.Equal(t, statusError, m.kind)
	assert.Contains(t, m.status, "quota exceeded")
}

func TestEmptySubmissions(t *testing.T) {
	m := newModel(&fakeSession{}, "")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.busy)
	assert.Equal(t, "Please upload a PDF first.", m.status)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, fieldQuestion, m.focus)
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, statusWarning, m.kind)
}

func TestReadFailure(t *testing.T) {
	m := newModel(&fakeSession{}, "")
	m.readFile = func(string) ([]byte, error) { return nil, errors.New("no such file") }

	m, _ = update(t, m, m.loadDocument("missing.pdf", "")())
	assert.Equal(t, statusError, m.kind)
	assert.Contains(t, m.status, "missing.pdf")
	assert.Empty(t, m.filename)
}
