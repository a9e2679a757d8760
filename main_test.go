package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/minios-linux/locsync/check"
	"github.com/minios-linux/locsync/config"
	"github.com/minios-linux/locsync/fix"
	"github.com/minios-linux/locsync/i18n"
	"github.com/minios-linux/locsync/localefile"
	"github.com/minios-linux/locsync/translate"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

// execute runs the CLI with args and returns stdout and the exit code.
func execute(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--ui-lang", "en"}, args...))

	err := root.Execute()
	if err == nil {
		return out.String(), exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return out.String(), ee.code
	}
	t.Fatalf("Execute(%v) error = %v", args, err)
	return "", -1
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"fr", []string{"fr"}},
		{" fr , ja,,", []string{"fr", "ja"}},
	}
	for _, tt := range tests {
		if got := splitList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestReportExitCode(t *testing.T) {
	r := check.NewReport("en.json", []string{"de.json"})
	if got := reportExitCode(r); got != exitOK {
		t.Fatalf("reportExitCode(clean) = %d, want %d", got, exitOK)
	}
	r.Add(check.Issue{Kind: check.MissingKey, File: "de.json", Key: "a"})
	if got := reportExitCode(r); got != exitIssues {
		t.Fatalf("reportExitCode(missing) = %d, want %d", got, exitIssues)
	}
	r.Add(check.Issue{Kind: check.ParseError, File: "fr.json"})
	if got := reportExitCode(r); got != exitParseError {
		t.Fatalf("reportExitCode(parse error) = %d, want %d", got, exitParseError)
	}
}

func TestFixExitCode(t *testing.T) {
	res := &fix.Result{Report: check.NewReport("en.json", nil), Files: []fix.FileResult{{Path: "de.json"}}}
	if got := fixExitCode(res); got != exitOK {
		t.Fatalf("fixExitCode(ok) = %d, want %d", got, exitOK)
	}
	res.Files = append(res.Files, fix.FileResult{Path: "fr.json", Err: errors.New("bad")})
	if got := fixExitCode(res); got != exitParseError {
		t.Fatalf("fixExitCode(skipped) = %d, want %d", got, exitParseError)
	}
}

func TestPrintReportLimitsIssues(t *testing.T) {
	i18n.Init("en")
	r := check.NewReport("en.json", []string{"de.json"})
	for i := 0; i < 5; i++ {
		r.Add(check.Issue{Kind: check.MissingKey, File: "de.json", Key: fmt.Sprintf("k%d", i), Message: "Missing key"})
	}

	var b bytes.Buffer
	printReport(&b, r, 3)
	out := b.String()
	if !strings.Contains(out, "[missing_key] de.json k2: Missing key") {
		t.Fatalf("report lacks third issue:\n%s", out)
	}
	if strings.Contains(out, "k3") {
		t.Fatalf("report lists issues past the limit:\n%s", out)
	}
	if !strings.Contains(out, "... and 2 more issues") {
		t.Fatalf("report lacks remainder line:\n%s", out)
	}

	b.Reset()
	printReport(&b, check.NewReport("en.json", nil), 3)
	if !strings.Contains(b.String(), "No issues found.") {
		t.Fatalf("clean report = %q", b.String())
	}
}

func TestTranslateSection(t *testing.T) {
	retries := 5
	c := &config.Config{Translate: &config.Translate{Provider: "openai", Model: "gpt-4o", RetryCount: &retries, BatchSize: 10}}

	got, err := translateSection(c, translateArgs{model: "gpt-4o-mini", concurrency: 7, retries: -1, noCache: true})
	if err != nil {
		t.Fatalf("translateSection: %v", err)
	}
	if got.Provider != "openai" || got.Model != "gpt-4o-mini" {
		t.Fatalf("provider/model = %s/%s", got.Provider, got.Model)
	}
	if got.BatchSize != 10 || got.Concurrency != 7 || got.Retries() != 5 {
		t.Fatalf("batch/concurrency/retries = %d/%d/%d", got.BatchSize, got.Concurrency, got.Retries())
	}
	if got.CacheEnabled() {
		t.Fatalf("CacheEnabled() = true with --no-cache")
	}
	if c.Translate.Model != "gpt-4o" {
		t.Fatalf("config section modified: model = %q", c.Translate.Model)
	}

	got, err = translateSection(&config.Config{}, translateArgs{provider: "ollama", retries: 0})
	if err != nil {
		t.Fatalf("translateSection(flags only): %v", err)
	}
	if got.BatchSize != config.DefaultBatchSize || got.Retries() != 0 {
		t.Fatalf("flags-only section = %+v", got)
	}

	if _, err := translateSection(&config.Config{}, translateArgs{retries: -1}); err == nil {
		t.Fatalf("translateSection(no provider) error = nil")
	}
}

func TestTranslateExit(t *testing.T) {
	ctx := context.Background()
	canceled, cancel := context.WithCancel(ctx)
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want int
	}{
		{"success", ctx, nil, exitOK},
		{"failures", ctx, &translate.FailureError{Failed: 2}, exitTranslation},
		{"parse errors only", ctx, &translate.FailureError{ParseErrors: 1}, exitParseError},
		{"fail fast", ctx, &translate.ItemError{File: "de.json", Key: "a"}, exitTranslation},
		{"bad base", ctx, fmt.Errorf("reading base locale: %w", &localefile.DecodeError{Path: "en.json", Err: errors.New("x")}), exitParseError},
		{"interrupted", canceled, context.Canceled, exitIssues},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateExit(tt.ctx, tt.err)
			code := exitOK
			var ee *exitError
			if errors.As(err, &ee) {
				code = ee.code
			} else if err != nil {
				t.Fatalf("translateExit() = %v, want exit error", err)
			}
			if code != tt.want {
				t.Fatalf("exit code = %d, want %d", code, tt.want)
			}
		})
	}

	plain := errors.New("no provider")
	if got := translateExit(ctx, plain); got != plain {
		t.Fatalf("translateExit(other) = %v, want the error unchanged", got)
	}
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), "base: locales/en.json\ntargets:\n  - locales/de.json\n")
	writeFile(t, filepath.Join(dir, "locales", "en.json"), "{\n  \"hello\": \"Hello\",\n  \"bye\": \"Bye {name}\"\n}\n")
	writeFile(t, filepath.Join(dir, "locales", "de.json"), "{\n  \"hello\": \"Hallo\",\n  \"old\": \"Alt\"\n}\n")
	return dir
}

func TestCheckCommand(t *testing.T) {
	dir := project(t)

	out, code := execute(t, "--root", dir, "check", "--json")
	if code != exitIssues {
		t.Fatalf("exit code = %d, want %d", code, exitIssues)
	}
	var r check.Report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("unmarshal report: %v\n%s", err, out)
	}
	if r.Summary.MissingKeys != 1 || r.Summary.ExtraKeys != 1 {
		t.Fatalf("summary = %+v", r.Summary)
	}

	writeFile(t, filepath.Join(dir, "locales", "de.json"), "{\"hello\": \"Hallo\", \"bye\": \"Tschüss {name}\"}\n")
	if _, code := execute(t, "--root", dir, "check"); code != exitOK {
		t.Fatalf("clean exit code = %d, want %d", code, exitOK)
	}

	writeFile(t, filepath.Join(dir, "locales", "de.json"), "{\"hello\": ")
	if _, code := execute(t, "--root", dir, "check"); code != exitParseError {
		t.Fatalf("parse error exit code = %d, want %d", code, exitParseError)
	}
}

func TestCheckCommandWithoutConfig(t *testing.T) {
	dir := project(t)
	if err := os.Remove(filepath.Join(dir, config.FileName)); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	base := filepath.Join(dir, "locales", "en.json")
	target := filepath.Join(dir, "locales", "de.json")

	if _, code := execute(t, "--root", dir, "check", "--base", base, "--targets", target); code != exitIssues {
		t.Fatalf("exit code = %d, want %d", code, exitIssues)
	}

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--root", dir, "check"})
	if err := root.Execute(); err == nil || !errors.Is(err, config.ErrNotFound) {
		t.Fatalf("Execute(no config) error = %v, want ErrNotFound", err)
	}
}

func TestFixCommandInPlace(t *testing.T) {
	dir := project(t)

	if _, code := execute(t, "--root", dir, "fix", "--in-place", "--drop-extra-keys"); code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	want := "{\n  \"hello\": \"Hallo\",\n  \"bye\": \"\"\n}\n"
	if got := readFile(t, filepath.Join(dir, "locales", "de.json")); got != want {
		t.Fatalf("de.json = %q, want %q", got, want)
	}
}

func TestTranslateCommand(t *testing.T) {
	dir := project(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := `{"items":[{"key":"bye","text":"Tschüss {name}"}]}`
		resp := map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	_, code := execute(t, "--root", dir, "translate",
		"--provider", "custom-openai", "--base-url", srv.URL, "--model", "test",
		"--mode", "missing", "--in-place", "--no-cache")
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	got := readFile(t, filepath.Join(dir, "locales", "de.json"))
	if !strings.Contains(got, `"bye": "Tschüss {name}"`) || !strings.Contains(got, `"old": "Alt"`) {
		t.Fatalf("de.json = %q", got)
	}
}

func TestTranslateCommandMissingKey(t *testing.T) {
	dir := project(t)
	t.Setenv("LOCSYNC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--ui-lang", "en", "--root", dir, "translate", "--provider", "openai"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("Execute() error = %v, want missing key hint", err)
	}
}

func TestNewCommand(t *testing.T) {
	dir := project(t)

	if _, code := execute(t, "--root", dir, "new", "--langs", "fr,de"); code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	fr := readFile(t, filepath.Join(dir, "locales", "fr.json"))
	if !strings.Contains(fr, `"hello": "Hello"`) {
		t.Fatalf("fr.json = %q", fr)
	}

	c, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := []string{"locales/de.json", "locales/fr.json"}; !reflect.DeepEqual(c.Patterns, want) {
		t.Fatalf("config targets = %v, want %v", c.Patterns, want)
	}
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	if _, code := execute(t, "--root", dir, "init", "--targets", "locales/*.json"); code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	got := readFile(t, filepath.Join(dir, config.FileName))
	if !strings.Contains(got, `base: "locales/en.json"`) || !strings.Contains(got, `  - "locales/*.json"`) {
		t.Fatalf(".locsync.yaml = %q", got)
	}

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--root", dir, "init"})
	if err := root.Execute(); err == nil {
		t.Fatalf("init over existing config error = nil")
	}
}

func TestVersionCommand(t *testing.T) {
	out, code := execute(t, "version")
	if code != exitOK || !strings.HasPrefix(out, "locsync version dev\n") {
		t.Fatalf("version = %q (exit %d)", out, code)
	}
}
