package tui

import (
	"errors"
	"testing"

	"github.com/ankimcp/ankimcp/internal/anki"
	tea "github.com/charmbracelet/bubbletea"
)

func TestUpdateHandlesWindowSizeAndCtrlC(t *testing.T) {
	m := NewModel(nil)

	updatedModel, cmd := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	updated := updatedModel.(Model)
	if updated.Width != 120 || updated.Height != 40 {
		t.Fatalf("size = %dx%d", updated.Width, updated.Height)
	}
	if cmd != nil {
		t.Fatal("window size update should not return command")
	}

	_, quitCmd := updated.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if quitCmd == nil {
		t.Fatal("ctrl+c should return quit command")
	}
}

func TestUpdateDashboardNavigationAndQuit(t *testing.T) {
	m := NewModel(nil)

	updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	updated := updatedModel.(Model)
	if updated.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1", updated.Cursor)
	}

	updatedModel, _ = updated.Update(tea.KeyMsg{Type: tea.KeyUp})
	updated = updatedModel.(Model)
	if updated.Cursor != 0 {
		t.Fatalf("cursor = %d, want 0", updated.Cursor)
	}

	_, quitCmd := updated.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if quitCmd == nil {
		t.Fatal("q on dashboard should return quit command")
	}
}

func TestUpdateDashboardSelectionLoadsDecks(t *testing.T) {
	m := NewModel(nil)
	m.Cursor = 0 // Browse decks

	updatedModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	updated := updatedModel.(Model)
	if updated.Screen != ScreenDecks {
		t.Fatalf("screen = %v, want %v", updated.Screen, ScreenDecks)
	}
	if cmd == nil {
		t.Fatal("selecting decks should return load command")
	}
}

func TestUpdateDecksLoadedMessage(t *testing.T) {
	m := NewModel(nil)
	m.Screen = ScreenDecks

	updatedModel, _ := m.Update(decksLoadedMsg{decks: []string{"Default", "Spanish"}})
	updated := updatedModel.(Model)
	if len(updated.Decks) != 2 || updated.Decks[1] != "Spanish" {
		t.Fatalf("decks = %v", updated.Decks)
	}
	if updated.ErrorMsg != "" {
		t.Fatalf("unexpected error message: %q", updated.ErrorMsg)
	}
}

func TestUpdateLoadErrorLandsInErrorMsg(t *testing.T) {
	m := NewModel(nil)
	m.Screen = ScreenDecks

	updatedModel, _ := m.Update(decksLoadedMsg{err: errors.New("connection refused")})
	updated := updatedModel.(Model)
	if updated.ErrorMsg != "connection refused" {
		t.Fatalf("error msg = %q", updated.ErrorMsg)
	}
	if len(updated.Decks) != 0 {
		t.Fatal("decks should stay empty on load error")
	}
}

func TestUpdateKeypressClearsError(t *testing.T) {
	m := NewModel(nil)
	m.Screen = ScreenDecks
	m.ErrorMsg = "stale error"

	updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	updated := updatedModel.(Model)
	if updated.ErrorMsg != "" {
		t.Fatalf("error msg should clear on keypress, got %q", updated.ErrorMsg)
	}
}

func TestUpdateModelsEnterLoadsFields(t *testing.T) {
	m := NewModel(nil)
	m.Screen = ScreenModels
	m.Models = []string{"Basic", "Cloze"}
	m.Cursor = 1

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter on model should return load command")
	}

	updatedModel, _ := m.Update(modelFieldsLoadedMsg{model: "Cloze", fields: []string{"Text", "Back Extra"}})
	updated := updatedModel.(Model)
	if updated.Screen != ScreenModelFields {
		t.Fatalf("screen = %v, want %v", updated.Screen, ScreenModelFields)
	}
	if updated.SelectedModel != "Cloze" || len(updated.ModelFields) != 2 {
		t.Fatalf("model = %q fields = %v", updated.SelectedModel, updated.ModelFields)
	}
}

func TestUpdateSearchInputFocusedHandlesEscAndEnter(t *testing.T) {
	m := NewModel(nil)
	m.Screen = ScreenSearch
	m.PrevScreen = ScreenDashboard
	m.SearchInput.Focus()

	updatedModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	updated := updatedModel.(Model)
	if updated.Screen != ScreenDashboard {
		t.Fatalf("screen = %v, want %v", updated.Screen, ScreenDashboard)
	}
	if updated.SearchInput.Focused() {
		t.Fatal("search input should blur on esc")
	}
	if cmd != nil {
		t.Fatal("esc should not return command")
	}

	m = NewModel(nil)
	m.Screen = ScreenSearch
	m.PrevScreen = ScreenDashboard
	m.SearchInput.Focus()
	m.SearchInput.SetValue("deck:Default")

	updatedModel, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	updated = updatedModel.(Model)
	if updated.SearchInput.Focused() {
		t.Fatal("search input should blur on enter")
	}
	if cmd == nil {
		t.Fatal("enter with query should return search command")
	}
}

func TestUpdateSearchResultsScrollAndBack(t *testing.T) {
	m := NewModel(nil)
	m.Screen = ScreenSearchResults
	m.Height = 12
	m.SearchResults = []int64{1, 2, 3, 4}
	m.Cursor = 2

	updatedModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	updated := updatedModel.(Model)
	if updated.Cursor != 3 {
		t.Fatalf("cursor = %d, want 3", updated.Cursor)
	}
	if updated.Scroll != 1 {
		t.Fatalf("scroll = %d, want 1", updated.Scroll)
	}

	updatedModel, _ = updated.Update(tea.KeyMsg{Type: tea.KeyEsc})
	updated = updatedModel.(Model)
	if updated.Screen != ScreenSearch {
		t.Fatalf("screen = %v, want %v", updated.Screen, ScreenSearch)
	}
}

func TestUpdateSearchResultsMessageSwitchesScreen(t *testing.T) {
	m := NewModel(nil)
	m.Screen = ScreenSearch

	updatedModel, _ := m.Update(searchResultsMsg{query: "tag:leech", ids: []int64{7, 8}})
	updated := updatedModel.(Model)
	if updated.Screen != ScreenSearchResults {
		t.Fatalf("screen = %v, want %v", updated.Screen, ScreenSearchResults)
	}
	if updated.SearchQuery != "tag:leech" || len(updated.SearchResults) != 2 {
		t.Fatalf("query = %q results = %v", updated.SearchQuery, updated.SearchResults)
	}
}

func TestUpdateReviewedLoadedMessage(t *testing.T) {
	m := NewModel(nil)
	m.Screen = ScreenReviewed

	updatedModel, _ := m.Update(reviewedLoadedMsg{days: []anki.DayCount{
		{Day: "2026-08-26", Count: 12},
		{Day: "2026-08-27", Count: 3},
	}})
	updated := updatedModel.(Model)
	if len(updated.Reviewed) != 2 {
		t.Fatalf("reviewed = %v", updated.Reviewed)
	}
	if updated.Reviewed[0].Day != "2026-08-26" {
		t.Fatalf("unexpected first day: %+v", updated.Reviewed[0])
	}
}
