// Package anki implements the request bridge to a local AnkiConnect
// endpoint.
//
// Every operation funnels through Client.Invoke: one HTTP POST, one
// Outcome back. Failures at any layer — transport, HTTP status, body
// decode, or the error field AnkiConnect itself reports — fold into
// the Outcome. The bridge never returns a Go error and never retries;
// AnkiConnect is local, so a failed call is surfaced verbatim to the
// caller instead of being papered over with backoff.
package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// connectVersion is the AnkiConnect API version carried in every request.
const connectVersion = 6

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds the bridge settings shared by every command.
type Config struct {
	URL          string
	Timeout      time.Duration
	DefaultDeck  string
	DefaultModel string
}

// DefaultConfig returns the compiled-in defaults, with environment
// overrides applied.
func DefaultConfig() Config {
	cfg := Config{
		URL:          "http://localhost:8765",
		Timeout:      30 * time.Second,
		DefaultDeck:  "Default",
		DefaultModel: "Basic",
	}
	if v := os.Getenv("ANKI_CONNECT_URL"); v != "" {
		cfg.URL = v
	}
	if v := os.Getenv("ANKI_DEFAULT_DECK"); v != "" {
		cfg.DefaultDeck = v
	}
	if v := os.Getenv("ANKI_DEFAULT_MODEL"); v != "" {
		cfg.DefaultModel = v
	}
	return cfg
}

// ─── Outcome ─────────────────────────────────────────────────────────────────

// Outcome is the normalized result of one AnkiConnect round trip.
// Exactly one of Result/Error is meaningful, keyed by Success.
type Outcome struct {
	Success bool
	Result  any
	Error   string
}

func failure(format string, args ...any) Outcome {
	return Outcome{Error: fmt.Sprintf(format, args...)}
}

// ─── Payloads ────────────────────────────────────────────────────────────────

// Note is the payload for the addNote action.
type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Options   NoteOptions       `json:"options"`
	Tags      []string          `json:"tags"`
}

// NoteOptions carries the per-note flags AnkiConnect understands.
type NoteOptions struct {
	AllowDuplicate bool `json:"allowDuplicate"`
}

// NoteUpdate is the payload for the updateNote action. Tags is a
// pointer so that "tags omitted" (leave unchanged) stays distinct from
// "empty list" (clear all tags) on the wire.
type NoteUpdate struct {
	ID     int64             `json:"id"`
	Fields map[string]string `json:"fields"`
	Tags   *[]string         `json:"tags,omitempty"`
}

// ─── Client ──────────────────────────────────────────────────────────────────

// Client performs AnkiConnect calls. It holds no mutable state beyond
// the shared http.Client, so it is safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

func (c *Client) Config() Config { return c.cfg }

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	Result any     `json:"result"`
	Error  *string `json:"error"`
}

// Invoke performs a single AnkiConnect action. One network call, no
// retries; cancelling ctx abandons the outstanding request. Pass nil
// params for actions that take none — the key is left off the wire.
func (c *Client) Invoke(ctx context.Context, action string, params any) Outcome {
	body, err := json.Marshal(request{Action: action, Version: connectVersion, Params: params})
	if err != nil {
		return failure("marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return failure("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return failure("%v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failure("AnkiConnect returned HTTP %d", resp.StatusCode)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return failure("decode response: %v", err)
	}

	if parsed.Error != nil && *parsed.Error != "" {
		return Outcome{Error: *parsed.Error}
	}
	return Outcome{Success: true, Result: parsed.Result}
}

// ─── Typed actions ───────────────────────────────────────────────────────────

func (c *Client) AddNote(ctx context.Context, n Note) Outcome {
	return c.Invoke(ctx, "addNote", map[string]any{"note": n})
}

func (c *Client) UpdateNote(ctx context.Context, u NoteUpdate) Outcome {
	return c.Invoke(ctx, "updateNote", map[string]any{"note": u})
}

// FindNotes passes the query through unmodified. Whether an empty
// query matches all notes or none is decided by Anki's search grammar,
// not by this layer.
func (c *Client) FindNotes(ctx context.Context, query string) Outcome {
	return c.Invoke(ctx, "findNotes", map[string]any{"query": query})
}

func (c *Client) DeckNames(ctx context.Context) Outcome {
	return c.Invoke(ctx, "deckNames", nil)
}

func (c *Client) ModelNames(ctx context.Context) Outcome {
	return c.Invoke(ctx, "modelNames", nil)
}

func (c *Client) ModelFieldNames(ctx context.Context, model string) Outcome {
	return c.Invoke(ctx, "modelFieldNames", map[string]any{"modelName": model})
}

func (c *Client) ModelFieldDescriptions(ctx context.Context, model string) Outcome {
	return c.Invoke(ctx, "modelFieldDescriptions", map[string]any{"modelName": model})
}

func (c *Client) NumCardsReviewedByDay(ctx context.Context) Outcome {
	return c.Invoke(ctx, "getNumCardsReviewedByDay", nil)
}

func (c *Client) Version(ctx context.Context) Outcome {
	return c.Invoke(ctx, "version", nil)
}

// ─── Result coercions ────────────────────────────────────────────────────────

// AnkiConnect responses decode into untyped JSON: arrays are []any and
// every number is a float64. The helpers below recover the shapes the
// handlers actually work with.

// StringSlice coerces a decoded JSON array into strings, dropping
// anything that is not a string.
func StringSlice(v any) []string {
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

// Int64Slice coerces a decoded JSON array of numbers into ids.
func Int64Slice(v any) []int64 {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(items))
	for _, item := range items {
		if f, ok := item.(float64); ok {
			out = append(out, int64(f))
		}
	}
	return out
}

// DayCount is one row of getNumCardsReviewedByDay.
type DayCount struct {
	Day   string
	Count int64
}

// DayCounts coerces the [day, count] pairs getNumCardsReviewedByDay
// returns, preserving their order.
func DayCounts(v any) []DayCount {
	rows, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]DayCount, 0, len(rows))
	for _, row := range rows {
		pair, ok := row.([]any)
		if !ok || len(pair) != 2 {
			continue
		}
		day, dayOK := pair[0].(string)
		count, countOK := pair[1].(float64)
		if !dayOK || !countOK {
			continue
		}
		out = append(out, DayCount{Day: day, Count: int64(count)})
	}
	return out
}
