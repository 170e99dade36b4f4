package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"askpdf/internal/models"
	"askpdf/internal/rag"
)

// SessionPort is the TUI-facing subset of rag.Session.
type SessionPort interface {
	Load(ctx context.Context, credential, filename string, data []byte) error
	Ask(ctx context.Context, credential, question string) (*models.Answer, error)
}

const (
	fieldPath = iota
	fieldKey
	fieldQuestion
	fieldCount
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusWarning
	statusError
)

type loadedMsg struct {
	filename string
	err      error
}

type answeredMsg struct {
	answer *models.Answer
	err    error
}

// Model is the Bubble Tea model: three inputs, a spinner while the pipeline
// works, and the last answer or message.
type Model struct {
	session           SessionPort
	defaultCredential string
	readFile          func(string) ([]byte, error)

	inputs  []textinput.Model
	focus   int
	spinner spinner.Model
	busy    bool

	filename string
	answer   *models.Answer
	status   string
	kind     statusKind
	width    int
}

// New creates a TUI model over session. defaultCredential is used when the
// key field is left empty.
func New(session SessionPort, defaultCredential string) Model {
	path := textinput.New()
	path.Prompt = "PDF  > "
	path.Placeholder = "path/to/file.pdf"
	path.Focus()

	key := textinput.New()
	key.Prompt = "Key  > "
	key.Placeholder = "API key"
	key.EchoMode = textinput.EchoPassword
	key.EchoCharacter = '•'
	if defaultCredential != "" {
		key.Placeholder = "API key (from environment)"
	}

	question := textinput.New()
	question.Prompt = "Ask  > "
	question.Placeholder = "Ask a question about your PDF"

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		session:           session,
		defaultCredential: defaultCredential,
		readFile:          os.ReadFile,
		inputs:            []textinput.Model{path, key, question},
		spinner:           sp,
		status:            "Enter a PDF path and press Enter to load it.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		m.busy = false
		m.answer = nil
		if msg.err != nil {
			m.filename = ""
			m.setError(msg.err)
			return m, nil
		}
		m.filename = msg.filename
		m.setStatus(statusSuccess, fmt.Sprintf("Loaded %s. Ask a question.", msg.filename))
		return m, m.focusOn(fieldQuestion)

	case answeredMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.answer = msg.answer
		m.setStatus(statusSuccess, "Here's the answer:")
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			return m, m.focusOn((m.focus + 1) % fieldCount)
		case "shift+tab", "up":
			return m, m.focusOn((m.focus + fieldCount - 1) % fieldCount)
		case "enter":
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// submit loads the document from the path field, or asks the question when
// the question field is focused.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.focus == fieldQuestion {
		question := strings.TrimSpace(m.inputs[fieldQuestion].Value())
		if question == "" {
			m.setStatus(statusWarning, "Please enter a question about your PDF.")
			return m, nil
		}
		m.busy = true
		m.setStatus(statusInfo, "Processing...")
		return m, tea.Batch(m.spinner.Tick, m.askQuestion(m.credential(), question))
	}

	path := strings.TrimSpace(m.inputs[fieldPath].Value())
	if path == "" {
		if m.focus == fieldKey {
			return m, m.focusOn(fieldQuestion)
		}
		m.setStatus(statusWarning, "Please upload a PDF first.")
		return m, nil
	}
	m.busy = true
	m.setStatus(statusInfo, "Processing...")
	return m, tea.Batch(m.spinner.Tick, m.loadDocument(path, m.credential()))
}

func (m Model) loadDocument(path, credential string) tea.Cmd {
	return func() tea.Msg {
		data, err := m.readFile(path)
		if err != nil {
			return loadedMsg{err: fmt.Errorf("could not read %s: %w", path, err)}
		}
		filename := filepath.Base(path)
		return loadedMsg{filename: filename, err: m.session.Load(context.Background(), credential, filename, data)}
	}
}

func (m Model) askQuestion(credential, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.session.Ask(context.Background(), credential, question)
		return answeredMsg{answer: answer, err: err}
	}
}

func (m Model) credential() string {
	if key := m.inputs[fieldKey].Value(); key != "" {
		return key
	}
	return m.defaultCredential
}

func (m *Model) focusOn(field int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = field
	return m.inputs[field].Focus()
}

func (m *Model) setStatus(kind statusKind, text string) {
	m.kind, m.status = kind, text
}

func (m *Model) setError(err error) {
	switch {
	case errors.Is(err, rag.ErrMissingCredential):
		m.setStatus(statusWarning, "Please insert OpenAI API Key.")
	case errors.Is(err, rag.ErrNoDocument):
		m.setStatus(statusWarning, "Please upload a PDF first.")
	default:
		m.setStatus(statusError, "Error: "+err.Error())
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Ask your PDF 💬"))
	b.WriteString("\n")
	if m.filename != "" {
		b.WriteString(mutedStyle.Render("Loaded: " + m.filename))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.busy {
		b.WriteString(m.spinner.View() + " ")
	}
	b.WriteString(statusStyles[m.kind].Render(m.status))
	b.WriteString("\n")

	if m.answer != nil && !m.busy {
		box := answerBoxStyle
		if m.width > 4 {
			box = box.Width(m.width - 4)
		}
		b.WriteString(box.Render(m.answer.Text))
		b.WriteString("\n")
		u := m.answer.Usage
		b.WriteString(mutedStyle.Render(fmt.Sprintf("tokens: %d prompt, %d completion, %d total  cost: $%.6f",
			u.PromptTokens, u.CompletionTokens, u.TotalTokens, u.EstimatedCostUSD)))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render("tab: next field  enter: load / ask  esc: quit"))
	return b.String()
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyles   = map[statusKind]lipgloss.Style{
		statusInfo:    lipgloss.NewStyle(),
		statusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		statusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		statusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
)
