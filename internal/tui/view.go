package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ─── Styles ──────────────────────────────────────────────────────────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// ─── View Router ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	var body string
	switch m.Screen {
	case ScreenDashboard:
		body = m.viewDashboard()
	case ScreenDecks:
		body = m.viewDecks()
	case ScreenModels:
		body = m.viewModels()
	case ScreenModelFields:
		body = m.viewModelFields()
	case ScreenSearch:
		body = m.viewSearch()
	case ScreenSearchResults:
		body = m.viewSearchResults()
	case ScreenReviewed:
		body = m.viewReviewed()
	default:
		body = "Unknown screen"
	}

	if m.ErrorMsg != "" {
		body += "\n" + errorStyle.Render("Error: "+m.ErrorMsg)
	}
	return body
}

// ─── Screens ─────────────────────────────────────────────────────────────────

func (m Model) viewDashboard() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("ankimcp — Anki collection browser"))
	b.WriteString("\n\n")

	for i, item := range dashboardMenuItems {
		if i == m.Cursor {
			b.WriteString(selectedStyle.Render("▸ " + item))
		} else {
			b.WriteString("  " + item)
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ move · enter select · / search · q quit"))
	return b.String()
}

func (m Model) viewDecks() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Decks (%d)", len(m.Decks))))
	b.WriteString("\n\n")

	if len(m.Decks) == 0 {
		b.WriteString(dimStyle.Render("No decks loaded"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderList(m.Decks, m.Height-8))
	}

	b.WriteString(helpStyle.Render("↑/↓ move · r reload · esc back"))
	return b.String()
}

func (m Model) viewModels() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Models (%d)", len(m.Models))))
	b.WriteString("\n\n")

	if len(m.Models) == 0 {
		b.WriteString(dimStyle.Render("No models loaded"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderList(m.Models, m.Height-8))
	}

	b.WriteString(helpStyle.Render("↑/↓ move · enter fields · esc back"))
	return b.String()
}

func (m Model) viewModelFields() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Fields of %q", m.SelectedModel)))
	b.WriteString("\n\n")

	for _, field := range m.ModelFields {
		b.WriteString("- " + field + "\n")
	}
	if len(m.ModelFields) == 0 {
		b.WriteString(dimStyle.Render("No fields"))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("esc back"))
	return b.String()
}

func (m Model) viewSearch() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Search notes"))
	b.WriteString("\n\n")
	b.WriteString(m.SearchInput.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter search · esc back"))
	return b.String()
}

func (m Model) viewSearchResults() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Search: %q — %d notes", m.SearchQuery, len(m.SearchResults))))
	b.WriteString("\n\n")

	if len(m.SearchResults) == 0 {
		b.WriteString(dimStyle.Render("No notes found"))
		b.WriteString("\n")
	} else {
		ids := make([]string, len(m.SearchResults))
		for i, id := range m.SearchResults {
			ids[i] = fmt.Sprintf("%d", id)
		}
		b.WriteString(m.renderList(ids, m.Height-10))
	}

	b.WriteString(helpStyle.Render("↑/↓ move · / new search · esc back"))
	return b.String()
}

func (m Model) viewReviewed() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Review activity"))
	b.WriteString("\n\n")

	if len(m.Reviewed) == 0 {
		b.WriteString(dimStyle.Render("No reviews recorded yet"))
		b.WriteString("\n")
	}
	for i, d := range m.Reviewed {
		if i < m.Scroll {
			continue
		}
		b.WriteString(fmt.Sprintf("%s  %d cards\n", d.Day, d.Count))
	}

	b.WriteString(helpStyle.Render("↑/↓ scroll · r reload · esc back"))
	return b.String()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// renderList renders a scrollable window of items with a cursor marker
// and an indicator when the list overflows the window.
func (m Model) renderList(items []string, visibleItems int) string {
	if visibleItems < 3 {
		visibleItems = 3
	}

	var b strings.Builder
	end := m.Scroll + visibleItems
	if end > len(items) {
		end = len(items)
	}

	for i := m.Scroll; i < end; i++ {
		if i == m.Cursor {
			b.WriteString(selectedStyle.Render("▸ " + items[i]))
		} else {
			b.WriteString("  " + items[i])
		}
		b.WriteString("\n")
	}

	if len(items) > visibleItems {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  showing %d-%d of %d", m.Scroll+1, end, len(items))))
		b.WriteString("\n")
	}
	return b.String()
}
