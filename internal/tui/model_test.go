package tui

import (
	"context"
	"math/rand"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curator/internal/chat"
	"curator/internal/domain"
)

func newModel(t *testing.T) (Model, *chat.Session) {
	t.Helper()
	s := chat.NewSession(chat.NewDemoResponder(rand.New(rand.NewSource(3))), chat.WithDelay(0))
	m := New(context.Background(), s, "demo")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model), s
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m
}

// drain runs cmd and feeds any reply back into the model.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		batch = tea.BatchMsg{func() tea.Msg { return msg }}
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		if reply, ok := c().(replyMsg); ok {
			updated, _ := m.Update(reply)
			m = updated.(Model)
		}
	}
	return m
}

func TestModel_ViewBeforeResize(t *testing.T) {
	s := chat.NewSession(chat.NewDemoResponder(nil))
	m := New(context.Background(), s, "demo")

	assert.Equal(t, "Loading...", m.View())
}

func TestModel_WelcomeShowsCategoriesAndPrompts(t *testing.T) {
	m, _ := newModel(t)

	view := m.View()

	assert.Contains(t, view, "Cardiology")
	assert.Contains(t, view, "Try asking")
}

func TestModel_EnterSubmitsAndReplies(t *testing.T) {
	m, s := newModel(t)
	m = typeText(m, "What is DKA?")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	require.Len(t, s.Messages(), 1)
	assert.Equal(t, "What is DKA?", s.Messages()[0].Content)
	assert.Empty(t, m.input.Value())

	m = drain(t, m, cmd)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Answer ready.", m.status)
	assert.Contains(t, m.View(), "confidence")
}

func TestModel_BlankEnterIsIgnored(t *testing.T) {
	m, s := newModel(t)
	m = typeText(m, "   ")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Empty(t, s.Messages())
}

func TestModel_TabCyclesSuggestedPrompts(t *testing.T) {
	m, _ := newModel(t)
	prompts := chat.SuggestedPrompts()

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	assert.Equal(t, prompts[0].Text, m.input.Value())

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	assert.Equal(t, prompts[1].Text, m.input.Value())
}

func TestModel_SourceOverlay(t *testing.T) {
	m, s := newModel(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	m = updated.(Model)
	assert.Nil(t, m.overlay)
	assert.Equal(t, "No sources to show yet.", m.status)

	m = typeText(m, "beta blockers")
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, updated.(Model), cmd)
	reply := s.Messages()[1]

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	m = updated.(Model)
	require.NotNil(t, m.overlay)
	assert.Contains(t, m.View(), reply.Sources[0].Title)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = updated.(Model)
	assert.Equal(t, 1, m.overlay.index)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = updated.(Model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = updated.(Model)
	assert.Equal(t, len(reply.Sources)-1, m.overlay.index)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	assert.Nil(t, m.overlay)
}

func TestModel_CtrlCQuits(t *testing.T) {
	m, _ := newModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestLastCited(t *testing.T) {
	msgs := []domain.Message{
		{Role: domain.RoleAssistant, Content: "old", Sources: []domain.Source{{Title: "A"}}},
		{Role: domain.RoleUser, Content: "q"},
		{Role: domain.RoleAssistant, Content: "no sources"},
	}

	got, ok := lastCited(msgs)

	require.True(t, ok)
	assert.Equal(t, "old", got.Content)
}

func TestModel_PagingScrollsTranscript(t *testing.T) {
	s := chat.NewSession(chat.NewDemoResponder(rand.New(rand.NewSource(5))), chat.WithDelay(0))
	for i := 0; i < 6; i++ {
		p, err := s.Submit("Explain the mechanism")
		require.NoError(t, err)
		_, err = s.Resolve(context.Background(), p)
		require.NoError(t, err)
	}
	updated, _ := New(context.Background(), s, "demo").Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	m := updated.(Model)
	require.True(t, m.viewport.AtBottom())

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	m = updated.(Model)
	assert.False(t, m.viewport.AtBottom())

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	m = updated.(Model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	m = updated.(Model)
	assert.True(t, m.viewport.AtBottom())

	m = typeText(m, "bf")
	assert.Equal(t, "bf", m.input.Value())
}
