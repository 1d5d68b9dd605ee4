package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeText(m confirmModel, s string) confirmModel {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(confirmModel)
}

func press(m confirmModel, t tea.KeyType) confirmModel {
	next, _ := m.Update(tea.KeyMsg{Type: t})
	return next.(confirmModel)
}

func TestConfirm_TypedWordConfirms(t *testing.T) {
	m := newConfirm(ConfirmPrompt{Title: "Delete 3 orphan files"})
	m = typeText(m, "delete")
	m = press(m, tea.KeyEnter)

	if !m.confirmed || m.canceled {
		t.Fatalf("confirmed=%v canceled=%v, want confirmed", m.confirmed, m.canceled)
	}
}

func TestConfirm_WrongWordKeepsWaiting(t *testing.T) {
	m := newConfirm(ConfirmPrompt{Title: "Delete"})
	m = typeText(m, "yes")
	m = press(m, tea.KeyEnter)

	if m.confirmed {
		t.Fatal("confirmed with wrong word")
	}
	if !m.mismatch {
		t.Error("mismatch not flagged")
	}
	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}
	if !strings.Contains(m.View(), "does not match") {
		t.Error("view does not show the mismatch")
	}
}

func TestConfirm_EscCancels(t *testing.T) {
	m := newConfirm(ConfirmPrompt{Title: "Delete"})
	m = typeText(m, "delete")
	m = press(m, tea.KeyEsc)

	if m.confirmed || !m.canceled {
		t.Fatalf("confirmed=%v canceled=%v, want canceled", m.confirmed, m.canceled)
	}
}

func TestConfirm_CustomWord(t *testing.T) {
	m := newConfirm(ConfirmPrompt{Title: "Prune", Word: "prune"})
	m = typeText(m, "prune")
	m = press(m, tea.KeyEnter)
	if !m.confirmed {
		t.Fatal("custom word not accepted")
	}
}

func TestConfirm_ViewListsLines(t *testing.T) {
	m := newConfirm(ConfirmPrompt{Title: "Delete 2 folders", Lines: []string{"gameshelf/old-1", "gameshelf/old-2"}})
	view := m.View()
	for _, want := range []string{"Delete 2 folders", "gameshelf/old-1", "gameshelf/old-2", "delete"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
