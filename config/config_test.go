package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
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

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	writeFile(t, path, `base: locales/en.json
targets:
  - locales/de.json
translate:
  provider: openai
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(dir, "locales", "en.json"); c.Base != want {
		t.Fatalf("Base = %q, want %q", c.Base, want)
	}
	if want := []string{filepath.Join(dir, "locales", "de.json")}; !reflect.DeepEqual(c.Targets, want) {
		t.Fatalf("Targets = %v, want %v", c.Targets, want)
	}
	if c.KeyStyle != "auto" {
		t.Fatalf("KeyStyle = %q, want auto", c.KeyStyle)
	}
	if got := c.Styles(); !reflect.DeepEqual(got, []string{"auto"}) {
		t.Fatalf("Styles() = %v, want [auto]", got)
	}
	if !c.TreatSame() {
		t.Fatalf("TreatSame() = false, want true")
	}

	tr := c.Translate
	if tr.BatchSize != 25 || tr.Concurrency != 3 || tr.RetryBaseDelayMs != 400 || tr.TimeoutSec != 120 {
		t.Fatalf("translate defaults = %+v", tr)
	}
	if tr.Retries() != 3 {
		t.Fatalf("Retries() = %d, want 3", tr.Retries())
	}
	if !tr.CacheEnabled() {
		t.Fatalf("CacheEnabled() = false, want true")
	}
}

func TestLoadExplicitValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".locsync.yml")
	writeFile(t, path, `base: en.yaml
targets: [de.yaml]
keyStyle: flat
placeholderStyle: [brace, ruby]
treatSameAsBaseAsUntranslated: false
translate:
  provider: claude
  retryCount: 0
  cache: false
  batchSize: 10
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.KeyStyle != "flat" {
		t.Fatalf("KeyStyle = %q, want flat", c.KeyStyle)
	}
	if want := []string{"brace", "ruby"}; !reflect.DeepEqual(c.Styles(), want) {
		t.Fatalf("Styles() = %v, want %v", c.Styles(), want)
	}
	if c.TreatSame() {
		t.Fatalf("TreatSame() = true, want false")
	}
	if c.Translate.Retries() != 0 {
		t.Fatalf("Retries() = %d, want 0", c.Translate.Retries())
	}
	if c.Translate.CacheEnabled() {
		t.Fatalf("CacheEnabled() = true, want false")
	}
	if c.Translate.BatchSize != 10 {
		t.Fatalf("BatchSize = %d, want 10", c.Translate.BatchSize)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "locsync.config.json")
	writeFile(t, path, `{
  "base": "locales/en.json",
  "targets": ["locales/zh.json"],
  "placeholderStyle": "brace, printf",
  "ignoreKeys": ["meta.version"]
}
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := []string{"brace", "printf"}; !reflect.DeepEqual(c.Styles(), want) {
		t.Fatalf("Styles() = %v, want %v", c.Styles(), want)
	}
	if want := []string{"meta.version"}; !reflect.DeepEqual(c.IgnoreKeys, want) {
		t.Fatalf("IgnoreKeys = %v, want %v", c.IgnoreKeys, want)
	}
	if c.Translate != nil {
		t.Fatalf("Translate = %+v, want nil", c.Translate)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no base", "targets: [a.json]\n", "missing required field: base"},
		{"no targets", "base: en.json\n", "missing required field: targets"},
		{"bad key style", "base: en.json\ntargets: [a.json]\nkeyStyle: dotted\n", "dotted"},
		{"bad placeholder", "base: en.json\ntargets: [a.json]\nplaceholderStyle: percent\n", "percent"},
		{"no provider", "base: en.json\ntargets: [a.json]\ntranslate:\n  model: x\n", "provider"},
		{"negative retries", "base: en.json\ntargets: [a.json]\ntranslate:\n  provider: openai\n  retryCount: -1\n", "retryCount"},
		{"glob without matches", "base: en.json\ntargets: ['none/*.json']\n", "matched no files"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			writeFile(t, path, tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestTargetGlobs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"en.json", "de.json", "fr.json", "nested/ja.json", "nested/notes.txt"} {
		writeFile(t, filepath.Join(dir, "locales", name), "{}\n")
	}
	path := filepath.Join(dir, FileName)
	writeFile(t, path, `base: locales/en.json
targets:
  - locales/zz.json
  - locales/**/*.json
  - locales/de.json
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	loc := filepath.Join(dir, "locales")
	want := []string{
		filepath.Join(loc, "zz.json"),
		filepath.Join(loc, "de.json"),
		filepath.Join(loc, "fr.json"),
		filepath.Join(loc, "nested", "ja.json"),
	}
	if !reflect.DeepEqual(c.Targets, want) {
		t.Fatalf("Targets = %v, want %v", c.Targets, want)
	}
	if want := []string{"locales/zz.json", "locales/**/*.json", "locales/de.json"}; !reflect.DeepEqual(c.Patterns, want) {
		t.Fatalf("Patterns = %v, want %v", c.Patterns, want)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if _, err := Find(dir); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find(empty) error = %v, want ErrNotFound", err)
	}

	writeFile(t, filepath.Join(dir, "locsync.config.json"), "{}")
	writeFile(t, filepath.Join(dir, ".locsync.yml"), "")
	got, err := Find(dir)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if want := filepath.Join(dir, ".locsync.yml"); got != want {
		t.Fatalf("Find() = %q, want %q", got, want)
	}
}

func TestApplyOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	writeFile(t, path, "base: en.json\ntargets: [de.json]\nignoreKeys: [a]\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	no := false
	err = c.Apply(Overrides{
		Base:             "other/en.json",
		Targets:          []string{"other/fr.json", "other/fr.json"},
		KeyStyle:         "nested",
		PlaceholderStyle: "mustache,printf",
		TreatSame:        &no,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if c.Base != filepath.Join("other", "en.json") {
		t.Fatalf("Base = %q", c.Base)
	}
	if want := []string{filepath.Join("other", "fr.json")}; !reflect.DeepEqual(c.Targets, want) {
		t.Fatalf("Targets = %v, want %v", c.Targets, want)
	}
	if c.KeyStyle != "nested" {
		t.Fatalf("KeyStyle = %q, want nested", c.KeyStyle)
	}
	if want := []string{"mustache", "printf"}; !reflect.DeepEqual(c.Styles(), want) {
		t.Fatalf("Styles() = %v, want %v", c.Styles(), want)
	}
	if c.TreatSame() {
		t.Fatalf("TreatSame() = true, want false")
	}
	if want := []string{"a"}; !reflect.DeepEqual(c.IgnoreKeys, want) {
		t.Fatalf("IgnoreKeys = %v, want %v (untouched)", c.IgnoreKeys, want)
	}

	if err := c.Apply(Overrides{KeyStyle: "weird"}); err == nil {
		t.Fatalf("Apply(bad key style) error = nil")
	}
}

func TestResolveAPIKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "MY_KEY=from-dotenv\nOPENAI_API_KEY=dotenv-openai\n")
	env, err := LoadEnv(dir)
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	t.Setenv("MY_KEY", "")
	t.Setenv(EnvAPIKey, "")
	t.Setenv("OPENAI_API_KEY", "")

	t.Run("config field wins", func(t *testing.T) {
		key, from := ResolveAPIKey(&Translate{Provider: "openai", APIKey: "inline", APIKeyEnv: "MY_KEY"}, env)
		if key != "inline" || from != "config" {
			t.Fatalf("ResolveAPIKey() = %q, %q", key, from)
		}
	})

	t.Run("apiKeyEnv read from dotenv", func(t *testing.T) {
		key, from := ResolveAPIKey(&Translate{Provider: "openai", APIKeyEnv: "MY_KEY"}, env)
		if key != "from-dotenv" || from != "MY_KEY" {
			t.Fatalf("ResolveAPIKey() = %q, %q", key, from)
		}
	})

	t.Run("process env beats dotenv", func(t *testing.T) {
		t.Setenv("MY_KEY", "from-env")
		key, _ := ResolveAPIKey(&Translate{Provider: "openai", APIKeyEnv: "MY_KEY"}, env)
		if key != "from-env" {
			t.Fatalf("ResolveAPIKey() = %q, want from-env", key)
		}
	})

	t.Run("generic variable before provider variable", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "generic")
		key, from := ResolveAPIKey(&Translate{Provider: "openai"}, env)
		if key != "generic" || from != EnvAPIKey {
			t.Fatalf("ResolveAPIKey() = %q, %q", key, from)
		}
	})

	t.Run("provider variable", func(t *testing.T) {
		key, from := ResolveAPIKey(&Translate{Provider: "openai"}, env)
		if key != "dotenv-openai" || from != "OPENAI_API_KEY" {
			t.Fatalf("ResolveAPIKey() = %q, %q", key, from)
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		key, from := ResolveAPIKey(&Translate{Provider: "ollama"}, env)
		if key != "" || from != "" {
			t.Fatalf("ResolveAPIKey() = %q, %q, want empty", key, from)
		}
		msg := MissingKeyError(&Translate{Provider: "gemini"}).Error()
		if !strings.Contains(msg, "GEMINI_API_KEY") {
			t.Fatalf("MissingKeyError() = %q, want GEMINI_API_KEY hint", msg)
		}
	})

	if _, err := LoadEnv(t.TempDir()); err != nil {
		t.Fatalf("LoadEnv(no .env) error = %v", err)
	}
}

func TestWriteStarterAndAppendTargets(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteStarter(dir, "locales/en.json", []string{"locales/de.json"}, false)
	if err != nil {
		t.Fatalf("WriteStarter: %v", err)
	}
	if _, err := WriteStarter(dir, "", nil, false); err == nil {
		t.Fatalf("WriteStarter over existing file error = nil")
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load(starter): %v", err)
	}
	if want := []string{filepath.Join(dir, "locales", "de.json")}; !reflect.DeepEqual(c.Targets, want) {
		t.Fatalf("starter Targets = %v, want %v", c.Targets, want)
	}

	added, err := AppendTargets(path, []string{
		filepath.Join(dir, "locales", "de.json"),
		filepath.Join(dir, "locales", "fr.json"),
	})
	if err != nil {
		t.Fatalf("AppendTargets: %v", err)
	}
	if want := []string{"locales/fr.json"}; !reflect.DeepEqual(added, want) {
		t.Fatalf("added = %v, want %v", added, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "# locsync configuration.") {
		t.Fatalf("comments lost:\n%s", data)
	}
	c, err = Load(path)
	if err != nil {
		t.Fatalf("Load(after append): %v", err)
	}
	if want := []string{"locales/de.json", "locales/fr.json"}; !reflect.DeepEqual(c.Patterns, want) {
		t.Fatalf("Patterns = %v, want %v", c.Patterns, want)
	}

	if added, err := AppendTargets(path, []string{filepath.Join(dir, "locales", "fr.json")}); err != nil || added != nil {
		t.Fatalf("AppendTargets(again) = %v, %v, want nil, nil", added, err)
	}
}

func TestAppendTargetsSkipsGlobMatches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "locsync.config.json")
	writeFile(t, path, `{
  "base": "locales/en.json",
  "targets": ["locales/*.json"]
}
`)

	added, err := AppendTargets(path, []string{
		filepath.Join(dir, "locales", "fr.json"),
		filepath.Join(dir, "docs", "fr.yaml"),
	})
	if err != nil {
		t.Fatalf("AppendTargets: %v", err)
	}
	if want := []string{"docs/fr.yaml"}; !reflect.DeepEqual(added, want) {
		t.Fatalf("added = %v, want %v", added, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"docs/fr.yaml"`) || !strings.HasPrefix(string(data), "{\n  \"base\"") {
		t.Fatalf("rewritten config:\n%s", data)
	}
}
