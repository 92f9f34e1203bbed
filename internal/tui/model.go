package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"curator/internal/chat"
	"curator/internal/domain"
)

// SessionPort is the TUI-facing subset of chat.Session.
type SessionPort interface {
	Submit(text string) (*chat.Pending, error)
	Resolve(ctx context.Context, p *chat.Pending) (domain.Message, error)
	Messages() []domain.Message
	Typing() bool
}

// replyMsg carries a resolved assistant message back to the model.
type replyMsg struct {
	msg domain.Message
	err error
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx       context.Context
	session   SessionPort
	mode      string
	input     textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	prompts   []chat.Prompt
	promptIdx int
	overlay   *sourceOverlay
	status    string
	width     int
	ready     bool
}

type sourceOverlay struct {
	message domain.Message
	index   int
}

// New creates a chat model. ctx bounds every pending reply; cancelling it
// abandons replies that have not arrived yet.
func New(ctx context.Context, session SessionPort, mode string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a medical question and press Enter (tab: suggestions)"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = typingStyle
	vp := viewport.New(0, 0)
	return Model{
		ctx:       ctx,
		session:   session,
		mode:      mode,
		input:     ti,
		viewport:  vp,
		spinner:   sp,
		prompts:   chat.SuggestedPrompts(),
		promptIdx: -1,
		status:    "Ready.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, spinner and reply events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, th := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input line, spacer
		vh := msg.Height - reserved - th
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, vh)
		m.refresh()
		return m, nil
	case replyMsg:
		if msg.err != nil {
			m.status = "Reply abandoned."
		} else {
			m.status = "Answer ready."
		}
		m.refresh()
		return m, nil
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case spinner.TickMsg:
		if !m.session.Typing() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if m.overlay != nil {
			return m.updateOverlay(msg), nil
		}
		switch msg.Type {
		case tea.KeyEnter:
			return m.send()
		case tea.KeyPgUp, tea.KeyPgDown:
			// only paging reaches the viewport; letter bindings belong to the input
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyTab:
			if len(m.prompts) > 0 {
				m.promptIdx = (m.promptIdx + 1) % len(m.prompts)
				m.input.SetValue(m.prompts[m.promptIdx].Text)
				m.input.CursorEnd()
			}
			return m, nil
		case tea.KeyCtrlO:
			if last, ok := lastCited(m.session.Messages()); ok {
				m.overlay = &sourceOverlay{message: last}
			} else {
				m.status = "No sources to show yet."
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) send() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	if q == "" {
		return m, nil
	}
	p, err := m.session.Submit(q)
	if err != nil {
		m.status = "Error: " + err.Error()
		return m, nil
	}
	m.input.Reset()
	m.promptIdx = -1
	m.status = "Searching the knowledge base..."
	m.refresh()
	return m, tea.Batch(m.resolve(p), m.spinner.Tick)
}

func (m Model) resolve(p *chat.Pending) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		msg, err := session.Resolve(ctx, p)
		return replyMsg{msg: msg, err: err}
	}
}

func (m Model) updateOverlay(msg tea.KeyMsg) Model {
	n := len(m.overlay.message.Sources)
	switch msg.Type {
	case tea.KeyEsc:
		m.overlay = nil
	case tea.KeyRight:
		o := *m.overlay
		o.index = (o.index + 1) % n
		m.overlay = &o
	case tea.KeyLeft:
		o := *m.overlay
		o.index = (o.index - 1 + n) % n
		m.overlay = &o
	}
	return m
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Curator") + " " + subtleStyle.Render("Neural Medical Retrieval · "+m.mode+" mode")
	if m.overlay != nil {
		return header + "\n" + m.renderOverlay()
	}
	status := statusStyle.Render(m.status)
	if m.session.Typing() {
		status = m.spinner.View() + " " + typingStyle.Render("Curator is typing...")
	}
	body := transcriptBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	return header + "\n" + body + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	msgs := m.session.Messages()
	if len(msgs) == 0 {
		m.viewport.SetContent(renderWelcome(m.prompts, m.viewport.Width))
		return
	}
	m.viewport.SetContent(renderTranscript(msgs, m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m Model) renderOverlay() string {
	o := m.overlay
	src := o.message.Sources[o.index]
	lines := []string{
		headerStyle.Render(src.Title),
		subtleStyle.Render(src.Category + " · " + src.Page),
		"",
		fmt.Sprintf("Source %d of %d cited by the answer below.", o.index+1, len(o.message.Sources)),
		"",
		wrap(o.message.Content, max(20, m.width-6)),
		"",
		subtleStyle.Render("←/→ browse sources · esc close"),
	}
	return overlayStyle.Render(strings.Join(lines, "\n"))
}

func renderWelcome(prompts []chat.Prompt, width int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Medical knowledge base"))
	b.WriteString("\n")
	for _, c := range chat.Categories() {
		fmt.Fprintf(&b, "  %s %s\n", c.Name, subtleStyle.Render(fmt.Sprintf("(%d documents)", c.Count)))
	}
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Try asking"))
	b.WriteString("\n")
	for _, p := range prompts {
		b.WriteString(wrap(fmt.Sprintf("  • %s %s", p.Text, subtleStyle.Render("["+p.Category+"]")), width))
		b.WriteString("\n")
	}
	return b.String()
}

func renderTranscript(msgs []domain.Message, width int) string {
	blocks := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		blocks = append(blocks, renderMessage(msg, width))
	}
	return strings.Join(blocks, "\n\n")
}

func renderMessage(msg domain.Message, width int) string {
	stamp := msg.Timestamp.Format("15:04")
	if msg.IsUser() {
		return userStyle.Render("You") + " " + subtleStyle.Render(stamp) + "\n" + wrap(msg.Content, width)
	}
	head := assistantStyle.Render("Curator") + " " + subtleStyle.Render(stamp)
	if msg.Confidence != nil {
		head += " " + confidenceStyle.Render(fmt.Sprintf("%d%% confidence", *msg.Confidence))
	}
	out := head + "\n" + wrap(msg.Content, width)
	if len(msg.Sources) > 0 {
		out += "\n" + subtleStyle.Render(fmt.Sprintf("Sources (%d) · ctrl+o to view", len(msg.Sources)))
		for i, s := range msg.Sources {
			out += "\n" + subtleStyle.Render(fmt.Sprintf("  [%d] %s · %s, %s", i+1, s.Title, s.Category, s.Page))
		}
	}
	return out
}

// lastCited returns the newest assistant message that cites sources.
func lastCited(msgs []domain.Message) (domain.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleAssistant && len(msgs[i].Sources) > 0 {
			return msgs[i], true
		}
	}
	return domain.Message{}, false
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	overlayStyle       = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).Padding(1, 2)
	headerStyle        = lipgloss.NewStyle().Bold(true)
	subtleStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle          = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	confidenceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	typingStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)
