// Package tui implements a read-only terminal browser for the Anki
// collection. It talks to AnkiConnect through the same bridge the MCP
// tools use; nothing here mutates notes.
package tui

import (
	"context"
	"errors"

	"github.com/ankimcp/ankimcp/internal/anki"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ─── Screens ─────────────────────────────────────────────────────────────────

type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenDecks
	ScreenModels
	ScreenModelFields
	ScreenSearch
	ScreenSearchResults
	ScreenReviewed
)

// ─── Model ───────────────────────────────────────────────────────────────────

type Model struct {
	client *anki.Client

	Screen     Screen
	PrevScreen Screen
	Cursor     int
	Scroll     int
	Width      int
	Height     int
	ErrorMsg   string

	SearchInput textinput.Model

	Decks         []string
	Models        []string
	SelectedModel string
	ModelFields   []string
	SearchQuery   string
	SearchResults []int64
	Reviewed      []anki.DayCount
}

func NewModel(c *anki.Client) Model {
	input := textinput.New()
	input.Placeholder = "deck:Default tag:leech ..."
	input.CharLimit = 200

	return Model{
		client:      c,
		Screen:      ScreenDashboard,
		SearchInput: input,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Run starts the browser in the alternate screen buffer and blocks
// until the user quits.
func Run(c *anki.Client) error {
	_, err := tea.NewProgram(NewModel(c), tea.WithAltScreen()).Run()
	return err
}

// ─── Messages ────────────────────────────────────────────────────────────────

type decksLoadedMsg struct {
	decks []string
	err   error
}

type modelsLoadedMsg struct {
	models []string
	err    error
}

type modelFieldsLoadedMsg struct {
	model  string
	fields []string
	err    error
}

type searchResultsMsg struct {
	query string
	ids   []int64
	err   error
}

type reviewedLoadedMsg struct {
	days []anki.DayCount
	err  error
}

// ─── Commands ────────────────────────────────────────────────────────────────

func outcomeErr(out anki.Outcome) error {
	if out.Success {
		return nil
	}
	return errors.New(out.Error)
}

func loadDecks(c *anki.Client) tea.Cmd {
	return func() tea.Msg {
		out := c.DeckNames(context.Background())
		if err := outcomeErr(out); err != nil {
			return decksLoadedMsg{err: err}
		}
		return decksLoadedMsg{decks: anki.StringSlice(out.Result)}
	}
}

func loadModels(c *anki.Client) tea.Cmd {
	return func() tea.Msg {
		out := c.ModelNames(context.Background())
		if err := outcomeErr(out); err != nil {
			return modelsLoadedMsg{err: err}
		}
		return modelsLoadedMsg{models: anki.StringSlice(out.Result)}
	}
}

func loadModelFields(c *anki.Client, model string) tea.Cmd {
	return func() tea.Msg {
		out := c.ModelFieldNames(context.Background(), model)
		if err := outcomeErr(out); err != nil {
			return modelFieldsLoadedMsg{model: model, err: err}
		}
		return modelFieldsLoadedMsg{model: model, fields: anki.StringSlice(out.Result)}
	}
}

func searchNotes(c *anki.Client, query string) tea.Cmd {
	return func() tea.Msg {
		out := c.FindNotes(context.Background(), query)
		if err := outcomeErr(out); err != nil {
			return searchResultsMsg{query: query, err: err}
		}
		return searchResultsMsg{query: query, ids: anki.Int64Slice(out.Result)}
	}
}

func loadReviewed(c *anki.Client) tea.Cmd {
	return func() tea.Msg {
		out := c.NumCardsReviewedByDay(context.Background())
		if err := outcomeErr(out); err != nil {
			return reviewedLoadedMsg{err: err}
		}
		return reviewedLoadedMsg{days: anki.DayCounts(out.Result)}
	}
}
