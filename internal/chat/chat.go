// Package chat renders the conversation as a Bubble Tea program. The
// answer arrives complete and is revealed word by word; streaming is
// purely presentation and never changes what the transcript stores.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Answerer produces a reply for a question against the active document.
// It never fails: errors come back as the reply text.
type Answerer interface {
	Answer(ctx context.Context, question string) string
}

// Uploader ingests a document from a local path.
type Uploader interface {
	Upload(ctx context.Context, path string) (reused bool, err error)
}

const revealInterval = 40 * time.Millisecond

type answerMsg struct{ content string }

type revealMsg struct{}

type uploadMsg struct {
	path   string
	reused bool
	err    error
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	ctx        context.Context
	answerer   Answerer
	uploader   Uploader
	transcript Transcript
	input      textinput.Model
	viewport   viewport.Model
	status     string
	ready      bool
	busy       bool

	// reveal state over the already-complete last assistant turn
	streamSegs []string
	revealed   int
}

func New(ctx context.Context, answerer Answerer, uploader Uploader, docName string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the document, /open <path> to load another, ctrl+c to quit"
	ti.Focus()
	ti.CharLimit = 0

	status := "No document loaded. Use /open <path> to begin."
	if docName != "" {
		status = "Chatting with " + docName + "."
	}
	return Model{
		ctx:      ctx,
		answerer: answerer,
		uploader: uploader,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   status,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved - ch
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = maxInt(20, msg.Width)
		m.viewport.Height = vh
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter && !m.busy {
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				break
			}
			m.input.Reset()
			return m.submit(line)
		}

	case answerMsg:
		// The transcript gets the full text immediately; only the view
		// trickles it out.
		m.transcript.Append(RoleAssistant, msg.content)
		m.streamSegs = strings.SplitAfter(msg.content, " ")
		m.revealed = 0
		m.refresh()
		return m, revealTick()

	case revealMsg:
		if m.streamSegs == nil {
			return m, nil
		}
		m.revealed++
		m.refresh()
		if m.revealed >= len(m.streamSegs) {
			m.streamSegs = nil
			m.revealed = 0
			m.busy = false
			m.status = "Ready."
			return m, nil
		}
		return m, revealTick()

	case uploadMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
		case msg.reused:
			m.status = "Using previously processed document."
		default:
			m.status = "Document ready: " + msg.path
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(line string) (tea.Model, tea.Cmd) {
	if path, ok := strings.CutPrefix(line, "/open "); ok {
		m.busy = true
		m.status = "Processing document..."
		return m, m.openCmd(strings.TrimSpace(path))
	}
	m.transcript.Append(RoleUser, line)
	m.busy = true
	m.status = "Analyzing..."
	m.refresh()
	return m, m.askCmd(line)
}

func (m Model) askCmd(question string) tea.Cmd {
	return func() tea.Msg {
		return answerMsg{content: m.answerer.Answer(m.ctx, question)}
	}
}

func (m Model) openCmd(path string) tea.Cmd {
	return func() tea.Msg {
		reused, err := m.uploader.Upload(m.ctx, path)
		return uploadMsg{path: path, reused: reused, err: err}
	}
}

func revealTick() tea.Cmd {
	return tea.Tick(revealInterval, func(time.Time) tea.Msg { return revealMsg{} })
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("docchat")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}

// Transcript exposes the conversation history.
func (m *Model) Transcript() *Transcript { return &m.transcript }

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m *Model) renderTranscript() string {
	turns := m.transcript.Turns()
	if len(turns) == 0 {
		return "No messages yet."
	}
	var b strings.Builder
	for i, turn := range turns {
		label := userStyle.Render("You")
		if turn.Role == RoleAssistant {
			label = assistantStyle.Render("Assistant")
		}
		content := turn.Content
		if m.streamSegs != nil && i == len(turns)-1 && turn.Role == RoleAssistant {
			content = strings.Join(m.streamSegs[:m.revealed], "")
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(content)
		if i < len(turns)-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
