// Package config loads the locsync configuration file.
//
// A project declares its base locale and target locales in .locsync.yaml
// (or .locsync.yml, or locsync.config.json). Targets may be doublestar
// globs; they are expanded relative to the directory holding the config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/locsync/keyspace"
	"github.com/minios-linux/locsync/placeholder"
)

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

// FileName is the config file written by init.
const FileName = ".locsync.yaml"

// FileNames are the names searched for, in order.
var FileNames = []string{".locsync.yaml", ".locsync.yml", "locsync.config.json"}

// Defaults for the translate section.
const (
	DefaultBatchSize        = 25
	DefaultConcurrency      = 3
	DefaultRetryCount       = 3
	DefaultRetryBaseDelayMs = 400
	DefaultTimeoutSec       = 120
)

// Config is the top-level configuration.
type Config struct {
	// Base is the source-of-truth locale file.
	Base string `yaml:"base"`
	// Targets are locale files or doublestar globs. After Load they hold
	// the expanded file list.
	Targets []string `yaml:"targets"`
	// KeyStyle is auto, nested or flat (default auto).
	KeyStyle string `yaml:"keyStyle,omitempty"`
	// PlaceholderStyle accepts a single name, a comma list or a list.
	PlaceholderStyle StyleList `yaml:"placeholderStyle,omitempty"`
	IgnoreKeys       []string  `yaml:"ignoreKeys,omitempty"`
	// TreatSameAsBaseAsUntranslated defaults to true.
	TreatSameAsBaseAsUntranslated *bool      `yaml:"treatSameAsBaseAsUntranslated,omitempty"`
	Translate                     *Translate `yaml:"translate,omitempty"`

	// Path is the file the config was read from, Dir its directory.
	Path string `yaml:"-"`
	Dir  string `yaml:"-"`
	// Patterns are the targets as written in the file.
	Patterns []string `yaml:"-"`
}

// Translate is the translate section.
type Translate struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"apiKey,omitempty"`
	APIKeyEnv  string `yaml:"apiKeyEnv,omitempty"`
	Model      string `yaml:"model,omitempty"`
	BaseURL    string `yaml:"baseUrl,omitempty"`
	Proxy      string `yaml:"proxy,omitempty"`
	SourceLang string `yaml:"sourceLang,omitempty"`
	TargetLang string `yaml:"targetLang,omitempty"`

	MaxItems         int   `yaml:"maxItems,omitempty"`
	BatchSize        int   `yaml:"batchSize,omitempty"`
	Concurrency      int   `yaml:"concurrency,omitempty"`
	RetryCount       *int  `yaml:"retryCount,omitempty"`
	RetryBaseDelayMs int   `yaml:"retryBaseDelayMs,omitempty"`
	DelayMs          int   `yaml:"delayMs,omitempty"`
	Cache            *bool `yaml:"cache,omitempty"`
	TimeoutSec       int   `yaml:"timeoutSec,omitempty"`
}

// StyleList is a list of placeholder style names.
type StyleList []string

// UnmarshalYAML accepts "brace", "brace,printf" and [brace, printf].
func (s *StyleList) UnmarshalYAML(n *yaml.Node) error {
	var raw []string
	switch n.Kind {
	case yaml.ScalarNode:
		raw = []string{n.Value}
	case yaml.SequenceNode:
		if err := n.Decode(&raw); err != nil {
			return err
		}
	default:
		return fmt.Errorf("line %d: placeholderStyle must be a string or a list", n.Line)
	}
	styles, err := placeholder.ParseStyles(strings.Join(raw, ","))
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*s = styles
	return nil
}

// TreatSame reports the effective treatSameAsBaseAsUntranslated value.
func (c *Config) TreatSame() bool {
	return c.TreatSameAsBaseAsUntranslated == nil || *c.TreatSameAsBaseAsUntranslated
}

// Styles returns the placeholder styles, auto when none are set.
func (c *Config) Styles() []string {
	if len(c.PlaceholderStyle) == 0 {
		return []string{placeholder.Auto}
	}
	return c.PlaceholderStyle
}

// Retries is the effective retry count.
func (t *Translate) Retries() int {
	if t.RetryCount == nil {
		return DefaultRetryCount
	}
	return *t.RetryCount
}

// CacheEnabled reports whether the translation cache is on (default true).
func (t *Translate) CacheEnabled() bool {
	return t.Cache == nil || *t.Cache
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// ErrNotFound is returned by Find when no config file exists.
var ErrNotFound = errors.New("no config file found")

// Find returns the first config file present in dir.
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w in %s (looked for %s)", ErrNotFound, dir, strings.Join(FileNames, ", "))
}

// Load reads, validates and resolves the config at path. Base and target
// paths are made relative to the current directory by joining them with
// the config's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	c.Path = path
	c.Dir = filepath.Dir(path)

	if strings.TrimSpace(c.Base) == "" {
		return nil, fmt.Errorf("%s: missing required field: base", path)
	}
	if len(c.Targets) == 0 {
		return nil, fmt.Errorf("%s: missing required field: targets (non-empty list)", path)
	}
	if c.KeyStyle == "" {
		c.KeyStyle = string(keyspace.StyleAuto)
	}
	if _, err := keyspace.ParseStyle(c.KeyStyle); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.Translate != nil {
		if err := c.Translate.ApplyDefaults(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	c.Base = c.resolve(c.Base)
	c.Patterns = c.Targets
	targets, err := c.expandTargets(c.Patterns)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%s: targets matched no files", path)
	}
	c.Targets = targets
	return &c, nil
}

// ApplyDefaults fills unset numeric fields and validates the section.
func (t *Translate) ApplyDefaults() error {
	if t.Provider == "" {
		return fmt.Errorf("translate: missing required field: provider")
	}
	if t.BatchSize <= 0 {
		t.BatchSize = DefaultBatchSize
	}
	if t.Concurrency <= 0 {
		t.Concurrency = DefaultConcurrency
	}
	if t.RetryBaseDelayMs <= 0 {
		t.RetryBaseDelayMs = DefaultRetryBaseDelayMs
	}
	if t.TimeoutSec <= 0 {
		t.TimeoutSec = DefaultTimeoutSec
	}
	if t.RetryCount != nil && *t.RetryCount < 0 {
		return fmt.Errorf("translate: retryCount must not be negative")
	}
	if t.MaxItems < 0 || t.DelayMs < 0 {
		return fmt.Errorf("translate: maxItems and delayMs must not be negative")
	}
	return nil
}

// resolve joins a config-relative path with the config directory.
func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Dir, p)
}

// expandTargets resolves plain paths and expands globs. Order follows the
// patterns, glob matches are sorted, duplicates and the base are dropped.
// Plain paths are kept even when the file does not exist yet.
func (c *Config) expandTargets(patterns []string) ([]string, error) {
	var out []string
	seen := map[string]bool{filepath.Clean(c.Base): true}
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, pat := range patterns {
		pat = strings.TrimSpace(pat)
		if pat == "" {
			continue
		}
		full := c.resolve(pat)
		if !hasMeta(pat) {
			add(full)
			continue
		}
		if !doublestar.ValidatePattern(filepath.ToSlash(full)) {
			return nil, fmt.Errorf("invalid target pattern %q", pat)
		}
		matches, err := doublestar.FilepathGlob(full, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", pat, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// ---------------------------------------------------------------------------
// Overrides
// ---------------------------------------------------------------------------

// Overrides holds command-line values that replace file values. Nil and
// empty fields leave the file value alone.
type Overrides struct {
	Base             string
	Targets          []string
	KeyStyle         string
	PlaceholderStyle string
	IgnoreKeys       []string
	TreatSame        *bool
}

// Apply merges o into c. Override targets are taken as written, relative
// to the current directory.
func (c *Config) Apply(o Overrides) error {
	if o.Base != "" {
		c.Base = filepath.Clean(o.Base)
	}
	if o.KeyStyle != "" {
		if _, err := keyspace.ParseStyle(o.KeyStyle); err != nil {
			return err
		}
		c.KeyStyle = o.KeyStyle
	}
	if o.PlaceholderStyle != "" {
		styles, err := placeholder.ParseStyles(o.PlaceholderStyle)
		if err != nil {
			return err
		}
		c.PlaceholderStyle = styles
	}
	if len(o.IgnoreKeys) > 0 {
		c.IgnoreKeys = o.IgnoreKeys
	}
	if o.TreatSame != nil {
		v := *o.TreatSame
		c.TreatSameAsBaseAsUntranslated = &v
	}
	if len(o.Targets) > 0 {
		saved := c.Dir
		c.Dir = "."
		targets, err := c.expandTargets(o.Targets)
		c.Dir = saved
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return fmt.Errorf("targets matched no files")
		}
		c.Targets = targets
	}
	return nil
}
