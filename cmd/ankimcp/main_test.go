package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/ankimcp/ankimcp/internal/anki"
)

// testConfig points the bridge at a scripted AnkiConnect endpoint.
func testConfig(t *testing.T, actions map[string]any) anki.Config {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Action string `json:"action"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode fake request: %v", err)
		}
		result, known := actions[body.Action]
		if !known {
			t.Fatalf("unexpected action %q", body.Action)
		}
		json.NewEncoder(w).Encode(map[string]any{"result": result, "error": nil})
	}))
	t.Cleanup(ts.Close)

	cfg := anki.DefaultConfig()
	cfg.URL = ts.URL
	return cfg
}

// downConfig points the bridge at a closed port.
func downConfig(t *testing.T) anki.Config {
	t.Helper()
	cfg := anki.DefaultConfig()
	cfg.URL = "http://127.0.0.1:1"
	return cfg
}

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = args
	t.Cleanup(func() {
		os.Args = old
	})
}

func captureOutput(t *testing.T, fn func()) (stdout string, stderr string) {
	t.Helper()

	oldOut := os.Stdout
	oldErr := os.Stderr

	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatalf("stdout pipe: %v", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		t.Fatalf("stderr pipe: %v", err)
	}

	os.Stdout = outW
	os.Stderr = errW

	fn()

	_ = outW.Close()
	_ = errW.Close()
	os.Stdout = oldOut
	os.Stderr = oldErr

	outBytes, err := io.ReadAll(outR)
	if err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	errBytes, err := io.ReadAll(errR)
	if err != nil {
		t.Fatalf("read stderr: %v", err)
	}

	return string(outBytes), string(errBytes)
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "note id", in: 1496198395707.0, want: "1496198395707"},
		{name: "version", in: 6.0, want: "6"},
		{name: "string passthrough", in: "abc", want: "abc"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := formatNumber(tc.in)
			if got != tc.want {
				t.Fatalf("formatNumber(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestPrintUsage(t *testing.T) {
	oldVersion := version
	version = "test-version"
	t.Cleanup(func() {
		version = oldVersion
	})

	stdout, stderr := captureOutput(t, func() { printUsage() })
	if stderr != "" {
		t.Fatalf("expected no stderr, got: %q", stderr)
	}
	if !strings.Contains(stdout, "ankimcp vtest-version") {
		t.Fatalf("usage missing version: %q", stdout)
	}
	if !strings.Contains(stdout, "find <query>") || !strings.Contains(stdout, "fields <model>") {
		t.Fatalf("usage missing expected commands: %q", stdout)
	}
}

func TestCmdCheck(t *testing.T) {
	cfg := testConfig(t, map[string]any{"version": 6})

	withArgs(t, "ankimcp", "check")
	stdout, stderr := captureOutput(t, func() { cmdCheck(cfg) })
	if stderr != "" {
		t.Fatalf("expected no stderr, got: %q", stderr)
	}
	if !strings.Contains(stdout, "Connected to AnkiConnect v6") {
		t.Fatalf("unexpected check output: %q", stdout)
	}

	withArgs(t, "ankimcp", "check")
	downOut, downErr := captureOutput(t, func() { cmdCheck(downConfig(t)) })
	if downOut != "" {
		t.Fatalf("expected no stdout when Anki is down, got: %q", downOut)
	}
	if !strings.Contains(downErr, "Failed to connect to AnkiConnect") {
		t.Fatalf("unexpected check stderr: %q", downErr)
	}
}

func TestCmdDecksAndModels(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"deckNames":  []string{"Default", "Spanish"},
		"modelNames": []string{"Basic"},
	})

	withArgs(t, "ankimcp", "decks")
	decksOut, decksErr := captureOutput(t, func() { cmdDecks(cfg) })
	if decksErr != "" {
		t.Fatalf("expected no stderr from decks, got: %q", decksErr)
	}
	if !strings.Contains(decksOut, "Available decks in Anki (2):") || !strings.Contains(decksOut, "- Spanish") {
		t.Fatalf("unexpected decks output: %q", decksOut)
	}

	withArgs(t, "ankimcp", "models")
	modelsOut, modelsErr := captureOutput(t, func() { cmdModels(cfg) })
	if modelsErr != "" {
		t.Fatalf("expected no stderr from models, got: %q", modelsErr)
	}
	if !strings.Contains(modelsOut, "Available models in Anki (1):") || !strings.Contains(modelsOut, "- Basic") {
		t.Fatalf("unexpected models output: %q", modelsOut)
	}
}

func TestCmdFields(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"modelFieldNames":        []string{"Front", "Back"},
		"modelFieldDescriptions": []string{"", "Answer side"},
	})

	withArgs(t, "ankimcp", "fields", "Basic")
	stdout, stderr := captureOutput(t, func() { cmdFields(cfg) })
	if stderr != "" {
		t.Fatalf("expected no stderr, got: %q", stderr)
	}
	if !strings.Contains(stdout, `Fields for model "Basic" (2):`) {
		t.Fatalf("fields header missing: %q", stdout)
	}
	if !strings.Contains(stdout, "- Front\n") || !strings.Contains(stdout, "- Back: Answer side") {
		t.Fatalf("unexpected fields output: %q", stdout)
	}

	withArgs(t, "ankimcp", "fields")
	_, usageErr := captureOutput(t, func() { cmdFields(cfg) })
	if !strings.Contains(usageErr, "usage: ankimcp fields") {
		t.Fatalf("expected usage message without model arg, got: %q", usageErr)
	}
}

func TestCmdFind(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"findNotes": []any{1502298033753.0, 1502298036657.0},
	})

	withArgs(t, "ankimcp", "find", "deck:Default")
	stdout, stderr := captureOutput(t, func() { cmdFind(cfg) })
	if stderr != "" {
		t.Fatalf("expected no stderr, got: %q", stderr)
	}
	if !strings.Contains(stdout, `Found 2 notes for query "deck:Default":`) {
		t.Fatalf("find header missing: %q", stdout)
	}
	if !strings.Contains(stdout, "- 1502298033753") {
		t.Fatalf("expected plain integer ids: %q", stdout)
	}

	withArgs(t, "ankimcp", "find")
	_, usageErr := captureOutput(t, func() { cmdFind(cfg) })
	if !strings.Contains(usageErr, "usage: ankimcp find") {
		t.Fatalf("expected usage message without query, got: %q", usageErr)
	}
}

func TestCmdReviewed(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"getNumCardsReviewedByDay": []any{
			[]any{"2026-08-26", 42.0},
			[]any{"2026-08-27", 7.0},
		},
	})

	withArgs(t, "ankimcp", "reviewed")
	stdout, stderr := captureOutput(t, func() { cmdReviewed(cfg) })
	if stderr != "" {
		t.Fatalf("expected no stderr, got: %q", stderr)
	}
	if !strings.Contains(stdout, "Cards reviewed by day (2 days):") {
		t.Fatalf("reviewed header missing: %q", stdout)
	}
	if !strings.Contains(stdout, "2026-08-26: 42 cards") {
		t.Fatalf("unexpected reviewed output: %q", stdout)
	}

	emptyCfg := testConfig(t, map[string]any{"getNumCardsReviewedByDay": []any{}})
	withArgs(t, "ankimcp", "reviewed")
	emptyOut, _ := captureOutput(t, func() { cmdReviewed(emptyCfg) })
	if !strings.Contains(emptyOut, "No reviews recorded yet.") {
		t.Fatalf("expected empty reviews message, got: %q", emptyOut)
	}
}

func TestCmdOverview(t *testing.T) {
	cfg := testConfig(t, map[string]any{
		"deckNames":       []string{"Default"},
		"modelNames":      []string{"Basic"},
		"modelFieldNames": []string{"Front", "Back"},
	})

	withArgs(t, "ankimcp", "overview")
	stdout, stderr := captureOutput(t, func() { cmdOverview(cfg) })
	if stderr != "" {
		t.Fatalf("expected no stderr, got: %q", stderr)
	}
	if !strings.Contains(stdout, "Decks (1):") || !strings.Contains(stdout, "Models (1):") {
		t.Fatalf("overview sections missing: %q", stdout)
	}
	if !strings.Contains(stdout, "- Basic (fields: Front, Back)") {
		t.Fatalf("model fields missing from overview: %q", stdout)
	}
}

func TestMainVersionAndHelpAliases(t *testing.T) {
	oldVersion := version
	version = "9.9.9-test"
	t.Cleanup(func() { version = oldVersion })

	tests := []struct {
		name     string
		arg      string
		contains string
	}{
		{name: "version", arg: "version", contains: "ankimcp 9.9.9-test"},
		{name: "version short", arg: "-v", contains: "ankimcp 9.9.9-test"},
		{name: "version long", arg: "--version", contains: "ankimcp 9.9.9-test"},
		{name: "help", arg: "help", contains: "Usage:"},
		{name: "help short", arg: "-h", contains: "Commands:"},
		{name: "help long", arg: "--help", contains: "Environment:"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			withArgs(t, "ankimcp", tc.arg)
			stdout, stderr := captureOutput(t, func() { main() })
			if stderr != "" {
				t.Fatalf("expected no stderr, got: %q", stderr)
			}
			if !strings.Contains(stdout, tc.contains) {
				t.Fatalf("stdout %q does not include %q", stdout, tc.contains)
			}
		})
	}
}

func TestMainExitPaths(t *testing.T) {
	tests := []struct {
		name           string
		helperCase     string
		expectedOutput string
		expectedStderr string
	}{
		{name: "no args", helperCase: "no-args", expectedOutput: "Usage:"},
		{name: "unknown command", helperCase: "unknown", expectedOutput: "Usage:", expectedStderr: "unknown command:"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd := exec.Command(os.Args[0], "-test.run=TestMainExitHelper")
			cmd.Env = append(os.Environ(),
				"GO_WANT_HELPER_PROCESS=1",
				"HELPER_CASE="+tc.helperCase,
			)

			out, err := cmd.CombinedOutput()
			exitErr, ok := err.(*exec.ExitError)
			if !ok {
				t.Fatalf("expected exit error, got %T (%v)", err, err)
			}
			if exitErr.ExitCode() != 1 {
				t.Fatalf("expected exit code 1, got %d; output=%q", exitErr.ExitCode(), string(out))
			}

			if !strings.Contains(string(out), tc.expectedOutput) {
				t.Fatalf("output missing %q: %q", tc.expectedOutput, string(out))
			}
			if tc.expectedStderr != "" && !strings.Contains(string(out), tc.expectedStderr) {
				t.Fatalf("output missing stderr text %q: %q", tc.expectedStderr, string(out))
			}
		})
	}
}

func TestMainExitHelper(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("HELPER_CASE") {
	case "no-args":
		os.Args = []string{"ankimcp"}
	case "unknown":
		os.Args = []string{"ankimcp", "definitely-unknown-command"}
	default:
		os.Args = []string{"ankimcp", "--help"}
	}

	main()
}
