package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCanceled is returned when the user backs out of a confirmation.
var ErrCanceled = errors.New("canceled")

// ConfirmWord is what the user types to approve a destructive action.
const ConfirmWord = "delete"

// ConfirmPrompt describes a destructive action awaiting approval.
type ConfirmPrompt struct {
	Title string
	// Lines summarize what will be removed, one per line.
	Lines []string
	// Word overrides ConfirmWord.
	Word string
}

func (p ConfirmPrompt) word() string {
	if p.Word != "" {
		return p.Word
	}
	return ConfirmWord
}

type confirmModel struct {
	prompt    ConfirmPrompt
	input     textinput.Model
	confirmed bool
	canceled  bool
	mismatch  bool
	activeCmd string
}

func newConfirm(p ConfirmPrompt) confirmModel {
	in := textinput.New()
	in.Placeholder = p.word()
	in.CharLimit = 32
	in.Width = 24
	in.Prompt = "│ "
	in.Focus()
	return confirmModel{prompt: p, input: in}
}

func (m confirmModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ClearActiveCmdMsg:
		m.activeCmd = ""
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.canceled = true
			return m, tea.Quit

		case "enter":
			if strings.TrimSpace(m.input.Value()) == m.prompt.word() {
				m.confirmed = true
				return m, tea.Quit
			}
			m.mismatch = true
			m.input.SetValue("")
			m.activeCmd = "enter"
			return m, HighlightCmd()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m confirmModel) View() string {
	outerStyle := lipgloss.NewStyle().Padding(1, 2)
	sepStyle := lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#444444"})

	const w = 54
	sep := sepStyle.Render(strings.Repeat("─", w))

	var b strings.Builder
	b.WriteString(StyleDanger.Render(m.prompt.Title))
	b.WriteString("\n\n")
	for _, line := range m.prompt.Lines {
		b.WriteString(StyleNormal.Render("  " + line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(sep)
	b.WriteString("\n\n")

	b.WriteString(StyleHelp.Render("Type "))
	b.WriteString(StyleKey.Render(m.prompt.word()))
	b.WriteString(StyleHelp.Render(" to continue"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.mismatch {
		b.WriteString(StyleHighlight.Render(fmt.Sprintf("  does not match %q", m.prompt.word())))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(RenderFooterBar([]ShortcutEntry{
		{Key: "enter", Label: "enter confirm"},
		{Key: "", Label: "esc cancel"},
	}, m.activeCmd))
	b.WriteString("\n")

	inner := lipgloss.NewStyle().Padding(0, 2, 0, 1)
	return outerStyle.Render(StyleBorder.Render(inner.Render(b.String())))
}

// RunConfirm shows the prompt and blocks until the user confirms or cancels.
// Canceling returns ErrCanceled.
func RunConfirm(p ConfirmPrompt) error {
	prog := tea.NewProgram(newConfirm(p))

	final, err := prog.Run()
	if err != nil {
		return fmt.Errorf("running confirmation: %w", err)
	}

	m, ok := final.(confirmModel)
	if !ok {
		return fmt.Errorf("unexpected model type")
	}
	if !m.confirmed {
		return ErrCanceled
	}
	return nil
}
