// Package mcp exposes the AnkiConnect bridge as Model Context Protocol
// tools.
//
// Any MCP client (Claude Code, Cursor, OpenCode, etc.) can create,
// update, and query Anki flashcards by adding ankimcp as an MCP server.
// Handlers follow one shape: validate arguments, delegate to the bridge
// with a fixed action, format the Outcome as text. A malformed call is
// a tool error; a failure reported by AnkiConnect is a readable text
// result, because "Anki rejected this" is an answer, not a crash.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ankimcp/ankimcp/internal/anki"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func NewServer(c *anki.Client) *server.MCPServer {
	srv := server.NewMCPServer(
		"ankimcp",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(true),
		server.WithInstructions("Tools for managing Anki flashcards through a local AnkiConnect endpoint. Anki must be running with the AnkiConnect add-on installed."),
	)

	registerTools(srv, c)
	registerPrompts(srv)
	registerResources(srv, c)
	return srv
}

func registerTools(srv *server.MCPServer, c *anki.Client) {
	// ─── add-notes ───────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("add-notes",
			mcp.WithDescription("Add one or more notes to Anki. Each note needs a name (used in the confirmation output) and a fields object whose keys match the note model (e.g. Front/Back for the Basic model). Deck and model fall back to the configured defaults. Notes are added independently: one failing note does not stop the rest."),
			mcp.WithArray("notes",
				mcp.Required(),
				mcp.Description(`Notes to add. Each item: {"name": string, "fields": {field: value}, "deck"?: string, "model"?: string, "tags"?: [string], "allow_duplicate"?: bool}`),
			),
		),
		handleAddNotes(c),
	)

	// ─── update-notes ────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("update-notes",
			mcp.WithDescription("Update one or more existing notes in Anki. Each item needs the note id and a fields object; tags are replaced only when the tags key is present (an empty list clears them, omitting the key leaves them unchanged). Updates are applied independently, one outcome line per note."),
			mcp.WithArray("notes",
				mcp.Required(),
				mcp.Description(`Updates to apply. Each item: {"id": number, "fields": {field: value}, "tags"?: [string]}`),
			),
		),
		handleUpdateNotes(c),
	)

	// ─── find-notes ──────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("find-notes",
			mcp.WithDescription("Find notes matching a query in Anki's search syntax (e.g. 'deck:Default', 'tag:leech', 'front:*cell*'). The query is passed through unmodified; whether an empty query matches everything is decided by Anki's search grammar."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Anki search query"),
			),
		),
		handleFindNotes(c),
	)

	// ─── list-decks ──────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("list-decks",
			mcp.WithDescription("List all available decks in Anki."),
		),
		handleListDecks(c),
	)

	// ─── list-models ─────────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("list-models",
			mcp.WithDescription("List all note models (templates) available in Anki."),
		),
		handleListModels(c),
	)

	// ─── get-model-fields ────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("get-model-fields",
			mcp.WithDescription("Get the field names of a note model, with their descriptions where the model defines them. Use this before add-notes to learn which field keys a model expects."),
			mcp.WithString("model_name",
				mcp.Required(),
				mcp.Description("Model name, e.g. 'Basic'"),
			),
		),
		handleGetModelFields(c),
	)

	// ─── get-cards-reviewed ──────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("get-cards-reviewed",
			mcp.WithDescription("Get the number of cards reviewed per day."),
		),
		handleGetCardsReviewed(c),
	)

	// ─── check-connection ────────────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("check-connection",
			mcp.WithDescription("Check the connection to Anki and report the AnkiConnect version."),
		),
		handleCheckConnection(c),
	)

	// ─── get-collection-overview ─────────────────────────────────────
	srv.AddTool(
		mcp.NewTool("get-collection-overview",
			mcp.WithDescription("Get an overview of the Anki collection: all decks, all models, and each model's fields."),
		),
		handleCollectionOverview(c),
	)
}

// ─── Tool Handlers ───────────────────────────────────────────────────────────

func handleAddNotes(c *anki.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := req.GetArguments()["notes"].([]any)
		if !ok || len(raw) == 0 {
			return mcp.NewToolResultError("notes must be a non-empty array"), nil
		}

		// Validate every item before the first network call so a
		// malformed batch fails whole, up front.
		cfg := c.Config()
		names := make([]string, 0, len(raw))
		notes := make([]anki.Note, 0, len(raw))
		for i, item := range raw {
			m, ok := item.(map[string]any)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("notes[%d] must be an object", i)), nil
			}
			name, _ := m["name"].(string)
			fields := stringMap(m["fields"])
			if name == "" || len(fields) == 0 {
				return mcp.NewToolResultError(fmt.Sprintf("notes[%d] needs a non-empty name and at least one field", i)), nil
			}

			deck, _ := m["deck"].(string)
			if deck == "" {
				deck = cfg.DefaultDeck
			}
			model, _ := m["model"].(string)
			if model == "" {
				model = cfg.DefaultModel
			}
			allowDuplicate, _ := m["allow_duplicate"].(bool)
			tags := stringSlice(m["tags"])
			if tags == nil {
				tags = []string{}
			}

			names = append(names, name)
			notes = append(notes, anki.Note{
				DeckName:  deck,
				ModelName: model,
				Fields:    fields,
				Options:   anki.NoteOptions{AllowDuplicate: allowDuplicate},
				Tags:      tags,
			})
		}

		var b strings.Builder
		for i, note := range notes {
			out := c.AddNote(ctx, note)
			if out.Success {
				fmt.Fprintf(&b, "Added note %q to deck %q with ID: %s\n", names[i], note.DeckName, formatResult(out.Result))
			} else {
				fmt.Fprintf(&b, "Failed to add note %q: %s\n", names[i], out.Error)
			}
		}
		return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
	}
}

func handleUpdateNotes(c *anki.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, ok := req.GetArguments()["notes"].([]any)
		if !ok || len(raw) == 0 {
			return mcp.NewToolResultError("notes must be a non-empty array"), nil
		}

		updates := make([]anki.NoteUpdate, 0, len(raw))
		for i, item := range raw {
			m, ok := item.(map[string]any)
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("notes[%d] must be an object", i)), nil
			}
			id := noteID(m["id"])
			fields := stringMap(m["fields"])
			if id == 0 || len(fields) == 0 {
				return mcp.NewToolResultError(fmt.Sprintf("notes[%d] needs a note id and at least one field", i)), nil
			}

			u := anki.NoteUpdate{ID: id, Fields: fields}
			// Key presence matters: a missing tags key leaves the
			// note's tags alone, an empty list clears them.
			if v, present := m["tags"]; present {
				tags := stringSlice(v)
				if tags == nil {
					tags = []string{}
				}
				u.Tags = &tags
			}
			updates = append(updates, u)
		}

		var b strings.Builder
		for _, u := range updates {
			out := c.UpdateNote(ctx, u)
			if out.Success {
				fmt.Fprintf(&b, "Updated note %d\n", u.ID)
			} else {
				fmt.Fprintf(&b, "Failed to update note %d: %s\n", u.ID, out.Error)
			}
		}
		return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
	}
}

func handleFindNotes(c *anki.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		v, present := req.GetArguments()["query"]
		if !present {
			return mcp.NewToolResultError("query is required"), nil
		}
		query, ok := v.(string)
		if !ok {
			return mcp.NewToolResultError("query must be a string"), nil
		}

		out := c.FindNotes(ctx, query)
		if !out.Success {
			return mcp.NewToolResultText("Failed to find notes: " + out.Error), nil
		}

		ids := anki.Int64Slice(out.Result)
		if len(ids) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No notes found for query: %q", query)), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Found %d notes for query %q:\n", len(ids), query)
		for _, id := range ids {
			fmt.Fprintf(&b, "- %d\n", id)
		}
		return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
	}
}

func handleListDecks(c *anki.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := c.DeckNames(ctx)
		if !out.Success {
			return mcp.NewToolResultText("Failed to retrieve decks: " + out.Error), nil
		}
		return mcp.NewToolResultText(bulletList("Available decks in Anki", anki.StringSlice(out.Result))), nil
	}
}

func handleListModels(c *anki.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := c.ModelNames(ctx)
		if !out.Success {
			return mcp.NewToolResultText("Failed to retrieve models: " + out.Error), nil
		}
		return mcp.NewToolResultText(bulletList("Available models in Anki", anki.StringSlice(out.Result))), nil
	}
}

func handleGetModelFields(c *anki.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		model, _ := req.GetArguments()["model_name"].(string)
		if model == "" {
			return mcp.NewToolResultError("model_name is required"), nil
		}

		namesOut := c.ModelFieldNames(ctx, model)
		if !namesOut.Success {
			return mcp.NewToolResultText(fmt.Sprintf("Failed to get field names for model %q: %s", model, namesOut.Error)), nil
		}
		descsOut := c.ModelFieldDescriptions(ctx, model)
		if !descsOut.Success {
			return mcp.NewToolResultText(fmt.Sprintf("Failed to get field descriptions for model %q: %s", model, descsOut.Error)), nil
		}

		names := anki.StringSlice(namesOut.Result)
		descs := anki.StringSlice(descsOut.Result)

		var b strings.Builder
		fmt.Fprintf(&b, "Fields for model %q (%d):\n", model, len(names))
		for i, name := range names {
			if i < len(descs) && descs[i] != "" {
				fmt.Fprintf(&b, "- %s: %s\n", name, descs[i])
			} else {
				fmt.Fprintf(&b, "- %s\n", name)
			}
		}
		return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
	}
}

func handleGetCardsReviewed(c *anki.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := c.NumCardsReviewedByDay(ctx)
		if !out.Success {
			return mcp.NewToolResultText("Failed to get review counts: " + out.Error), nil
		}

		days := anki.DayCounts(out.Result)
		if len(days) == 0 {
			return mcp.NewToolResultText("No reviews recorded yet."), nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Cards reviewed by day (%d days):\n", len(days))
		for _, d := range days {
			fmt.Fprintf(&b, "%s: %d cards\n", d.Day, d.Count)
		}
		return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
	}
}

func handleCheckConnection(c *anki.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := c.Version(ctx)
		if !out.Success {
			return mcp.NewToolResultText("Failed to connect to AnkiConnect: " + out.Error), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Connected to AnkiConnect v%s", formatResult(out.Result))), nil
	}
}

func handleCollectionOverview(c *anki.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		decksOut := c.DeckNames(ctx)
		if !decksOut.Success {
			return mcp.NewToolResultText("Failed to retrieve decks: " + decksOut.Error), nil
		}
		modelsOut := c.ModelNames(ctx)
		if !modelsOut.Success {
			return mcp.NewToolResultText("Failed to retrieve models: " + modelsOut.Error), nil
		}

		decks := anki.StringSlice(decksOut.Result)
		models := anki.StringSlice(modelsOut.Result)

		var b strings.Builder
		b.WriteString("# Anki Collection Overview\n\n")
		fmt.Fprintf(&b, "## Decks (%d)\n", len(decks))
		for _, deck := range decks {
			fmt.Fprintf(&b, "- %s\n", deck)
		}
		fmt.Fprintf(&b, "\n## Models (%d)\n", len(models))
		for _, model := range models {
			fieldsOut := c.ModelFieldNames(ctx, model)
			if fieldsOut.Success {
				fmt.Fprintf(&b, "- %s (fields: %s)\n", model, strings.Join(anki.StringSlice(fieldsOut.Result), ", "))
			} else {
				fmt.Fprintf(&b, "- %s (fields unavailable: %s)\n", model, fieldsOut.Error)
			}
		}
		return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
	}
}

// ─── Prompts ─────────────────────────────────────────────────────────────────

func registerPrompts(srv *server.MCPServer) {
	srv.AddPrompt(
		mcp.NewPrompt("create-flashcard",
			mcp.WithPromptDescription("Creates a new Anki flashcard about a topic"),
			mcp.WithArgument("topic",
				mcp.ArgumentDescription("Topic for the flashcard"),
				mcp.RequiredArgument(),
			),
		),
		handleCreateFlashcardPrompt,
	)
}

func handleCreateFlashcardPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return mcp.NewGetPromptResult(
		fmt.Sprintf("Create an Anki flashcard about %s", topic),
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(fmt.Sprintf(
				"Create a flashcard about %s. The flashcard should have a clear question on the front and a concise answer on the back. Make sure the content is factually accurate and educational.",
				topic,
			))),
		},
	), nil
}

// ─── Resources ───────────────────────────────────────────────────────────────

// The deck list is a read-through resource: every read asks AnkiConnect,
// so the answer is never stale and the server keeps no local copy of
// the collection.

func registerResources(srv *server.MCPServer, c *anki.Client) {
	srv.AddResource(
		mcp.NewResource("anki://decks", "Deck list",
			mcp.WithResourceDescription("All deck names, queried live from AnkiConnect"),
			mcp.WithMIMEType("application/json"),
		),
		handleDecksResource(c),
	)
}

func handleDecksResource(c *anki.Client) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		out := c.DeckNames(ctx)
		if !out.Success {
			return nil, fmt.Errorf("deckNames: %s", out.Error)
		}
		data, err := json.Marshal(anki.StringSlice(out.Result))
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func stringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// noteID accepts ids as JSON numbers or strings; clients hand over both.
func noteID(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		id, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0
		}
		return id
	}
	return 0
}

// formatResult renders a decoded JSON value for display. Whole numbers
// (note ids, versions) come back as float64 and must not print in
// scientific notation.
func formatResult(v any) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprintf("%v", v)
}

func bulletList(header string, items []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):\n", header, len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return strings.TrimRight(b.String(), "\n")
}
