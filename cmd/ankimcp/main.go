// ankimcp bridges Anki (via the AnkiConnect add-on) to the Model
// Context Protocol, and doubles as a small CLI for poking at the
// collection from the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ankimcp/ankimcp/internal/anki"
	"github.com/ankimcp/ankimcp/internal/mcp"
	"github.com/ankimcp/ankimcp/internal/server"
	"github.com/ankimcp/ankimcp/internal/tui"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

var version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := anki.DefaultConfig()

	switch os.Args[1] {
	case "mcp":
		cmdMCP(cfg)
	case "serve":
		cmdServe(cfg)
	case "check":
		cmdCheck(cfg)
	case "decks":
		cmdDecks(cfg)
	case "models":
		cmdModels(cfg)
	case "fields":
		cmdFields(cfg)
	case "find":
		cmdFind(cfg)
	case "reviewed":
		cmdReviewed(cfg)
	case "overview":
		cmdOverview(cfg)
	case "browse":
		cmdBrowse(cfg)
	case "version", "-v", "--version":
		fmt.Printf("ankimcp %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`ankimcp v%s — Anki flashcards over MCP

Usage:
  ankimcp <command> [flags]

Commands:
  mcp                Run the MCP server on stdio (for agent configs)
  serve              Run the MCP server over HTTP (/mcp) with /health
  check              Check the AnkiConnect connection
  decks              List decks
  models             List note models
  fields <model>     Show the fields of a note model
  find <query>       Find notes with Anki search syntax
  reviewed           Show cards reviewed per day
  overview           Show decks, models, and model fields
  browse             Browse the collection in a TUI
  version            Print version
  help               Show this help

Flags (every command):
  --anki-connect     AnkiConnect URL (default http://localhost:8765)

Environment:
  ANKI_CONNECT_URL   AnkiConnect URL override
  ANKI_DEFAULT_DECK  Default deck for new notes (default "Default")
  ANKI_DEFAULT_MODEL Default model for new notes (default "Basic")
`, version)
}

// applyCommonFlags registers the flags every subcommand shares.
func applyCommonFlags(fs *flag.FlagSet, cfg *anki.Config) {
	fs.StringVar(&cfg.URL, "anki-connect", cfg.URL, "AnkiConnect endpoint URL")
}

func parseFlags(name string, cfg *anki.Config, register func(*flag.FlagSet)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	applyCommonFlags(fs, cfg)
	if register != nil {
		register(fs)
	}
	fs.Parse(os.Args[2:])
	return fs
}

// ─── Commands ────────────────────────────────────────────────────────────────

func cmdMCP(cfg anki.Config) {
	parseFlags("mcp", &cfg, nil)

	// stdout belongs to the MCP transport; logs go to stderr.
	log.SetOutput(os.Stderr)
	log.SetPrefix("[ankimcp] ")

	srv := mcp.NewServer(anki.NewClient(cfg))
	if err := mcpserver.ServeStdio(srv); err != nil {
		log.Fatalf("mcp server: %v", err)
	}
}

func cmdServe(cfg anki.Config) {
	var port int
	parseFlags("serve", &cfg, func(fs *flag.FlagSet) {
		fs.IntVar(&port, "port", 8777, "port to listen on")
	})

	srv := server.New(anki.NewClient(cfg), port)
	if err := srv.Start(); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

func cmdCheck(cfg anki.Config) {
	parseFlags("check", &cfg, nil)
	c := anki.NewClient(cfg)

	out := c.Version(context.Background())
	if !out.Success {
		fmt.Fprintf(os.Stderr, "Failed to connect to AnkiConnect at %s: %s\n", cfg.URL, out.Error)
		return
	}
	fmt.Printf("Connected to AnkiConnect v%s at %s\n", formatNumber(out.Result), cfg.URL)
}

func cmdDecks(cfg anki.Config) {
	parseFlags("decks", &cfg, nil)
	c := anki.NewClient(cfg)

	out := c.DeckNames(context.Background())
	if !out.Success {
		fmt.Fprintf(os.Stderr, "Failed to retrieve decks: %s\n", out.Error)
		return
	}

	decks := anki.StringSlice(out.Result)
	fmt.Printf("Available decks in Anki (%d):\n", len(decks))
	for _, deck := range decks {
		fmt.Printf("- %s\n", deck)
	}
}

func cmdModels(cfg anki.Config) {
	parseFlags("models", &cfg, nil)
	c := anki.NewClient(cfg)

	out := c.ModelNames(context.Background())
	if !out.Success {
		fmt.Fprintf(os.Stderr, "Failed to retrieve models: %s\n", out.Error)
		return
	}

	models := anki.StringSlice(out.Result)
	fmt.Printf("Available models in Anki (%d):\n", len(models))
	for _, model := range models {
		fmt.Printf("- %s\n", model)
	}
}

func cmdFields(cfg anki.Config) {
	fs := parseFlags("fields", &cfg, nil)
	model := fs.Arg(0)
	if model == "" {
		fmt.Fprintln(os.Stderr, "usage: ankimcp fields [flags] <model>")
		return
	}
	c := anki.NewClient(cfg)
	ctx := context.Background()

	namesOut := c.ModelFieldNames(ctx, model)
	if !namesOut.Success {
		fmt.Fprintf(os.Stderr, "Failed to get field names for model %q: %s\n", model, namesOut.Error)
		return
	}
	descsOut := c.ModelFieldDescriptions(ctx, model)
	if !descsOut.Success {
		fmt.Fprintf(os.Stderr, "Failed to get field descriptions for model %q: %s\n", model, descsOut.Error)
		return
	}

	names := anki.StringSlice(namesOut.Result)
	descs := anki.StringSlice(descsOut.Result)
	fmt.Printf("Fields for model %q (%d):\n", model, len(names))
	for i, name := range names {
		if i < len(descs) && descs[i] != "" {
			fmt.Printf("- %s: %s\n", name, descs[i])
		} else {
			fmt.Printf("- %s\n", name)
		}
	}
}

func cmdFind(cfg anki.Config) {
	fs := parseFlags("find", &cfg, nil)
	query := strings.Join(fs.Args(), " ")
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: ankimcp find [flags] <query>")
		return
	}
	c := anki.NewClient(cfg)

	out := c.FindNotes(context.Background(), query)
	if !out.Success {
		fmt.Fprintf(os.Stderr, "Failed to find notes: %s\n", out.Error)
		return
	}

	ids := anki.Int64Slice(out.Result)
	if len(ids) == 0 {
		fmt.Printf("No notes found for query: %q\n", query)
		return
	}
	fmt.Printf("Found %d notes for query %q:\n", len(ids), query)
	for _, id := range ids {
		fmt.Printf("- %d\n", id)
	}
}

func cmdReviewed(cfg anki.Config) {
	parseFlags("reviewed", &cfg, nil)
	c := anki.NewClient(cfg)

	out := c.NumCardsReviewedByDay(context.Background())
	if !out.Success {
		fmt.Fprintf(os.Stderr, "Failed to get review counts: %s\n", out.Error)
		return
	}

	days := anki.DayCounts(out.Result)
	if len(days) == 0 {
		fmt.Println("No reviews recorded yet.")
		return
	}
	fmt.Printf("Cards reviewed by day (%d days):\n", len(days))
	for _, d := range days {
		fmt.Printf("%s: %d cards\n", d.Day, d.Count)
	}
}

func cmdOverview(cfg anki.Config) {
	parseFlags("overview", &cfg, nil)
	c := anki.NewClient(cfg)
	ctx := context.Background()

	decksOut := c.DeckNames(ctx)
	if !decksOut.Success {
		fmt.Fprintf(os.Stderr, "Failed to retrieve decks: %s\n", decksOut.Error)
		return
	}
	modelsOut := c.ModelNames(ctx)
	if !modelsOut.Success {
		fmt.Fprintf(os.Stderr, "Failed to retrieve models: %s\n", modelsOut.Error)
		return
	}

	decks := anki.StringSlice(decksOut.Result)
	models := anki.StringSlice(modelsOut.Result)

	fmt.Printf("Decks (%d):\n", len(decks))
	for _, deck := range decks {
		fmt.Printf("- %s\n", deck)
	}
	fmt.Printf("\nModels (%d):\n", len(models))
	for _, model := range models {
		fieldsOut := c.ModelFieldNames(ctx, model)
		if fieldsOut.Success {
			fmt.Printf("- %s (fields: %s)\n", model, strings.Join(anki.StringSlice(fieldsOut.Result), ", "))
		} else {
			fmt.Printf("- %s (fields unavailable: %s)\n", model, fieldsOut.Error)
		}
	}
}

func cmdBrowse(cfg anki.Config) {
	parseFlags("browse", &cfg, nil)
	if err := tui.Run(anki.NewClient(cfg)); err != nil {
		log.Fatalf("browse: %v", err)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// formatNumber renders decoded JSON numbers without scientific notation.
func formatNumber(v any) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", v)
}
