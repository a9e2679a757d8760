// Package cache implements the translation cache: an append-only JSONL
// log of translations, indexed in memory by a content fingerprint of the
// full translation context. Repeated runs with unchanged base text and
// the same provider settings reuse earlier results instead of calling the
// provider again.
//
// The log is stored under the project root as .locsync-cache/translations.jsonl.
package cache

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"lukechampine.com/blake3"
)

// DirName is the cache directory, relative to the project root.
const DirName = ".locsync-cache"

// FileName is the log file inside DirName.
const FileName = "translations.jsonl"

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Key is the translation context a cached result belongs to.
type Key struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
	Text       string `json:"text"`
}

// Fingerprint returns the BLAKE3 hex digest of the key's canonical JSON.
// Absent model or languages hash as empty strings.
func (k Key) Fingerprint() string {
	// Struct fields marshal in declaration order, which keeps the
	// encoding stable across runs.
	data, _ := json.Marshal(k)
	sum := blake3.Sum256(append([]byte("translation\n"), data...))
	return hex.EncodeToString(sum[:])
}

// Entry is one line of the log.
type Entry struct {
	Fingerprint    string    `json:"fingerprint"`
	Provider       string    `json:"provider"`
	Model          string    `json:"model,omitempty"`
	SourceLang     string    `json:"sourceLang,omitempty"`
	TargetLang     string    `json:"targetLang,omitempty"`
	SourceText     string    `json:"sourceText"`
	TranslatedText string    `json:"translatedText"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Cache is safe for concurrent use. The log is read at most once, on the
// first Lookup, Record or Load.
type Cache struct {
	path string

	once    sync.Once
	loadErr error

	mu    sync.RWMutex
	index map[string]Entry

	// writeMu serializes appends to the log.
	writeMu sync.Mutex

	now func() time.Time
}

// Open returns the cache rooted at root. Nothing is read until first use.
func Open(root string) *Cache {
	return &Cache{
		path:  filepath.Join(root, DirName, FileName),
		index: make(map[string]Entry),
		now:   time.Now,
	}
}

// Path returns the log file path.
func (c *Cache) Path() string {
	return c.path
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the log into memory. A missing log is an empty cache, and
// lines that do not parse are skipped. Only the first call does any work.
func (c *Cache) Load() error {
	c.once.Do(func() {
		c.loadErr = c.read()
	})
	return c.loadErr
}

func (c *Cache) read() error {
	f, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", c.path, err)
	}
	defer f.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if line = bytes.TrimSpace(line); len(line) > 0 {
			var e Entry
			if json.Unmarshal(line, &e) == nil && e.Fingerprint != "" {
				// Later lines supersede earlier ones.
				c.index[e.Fingerprint] = e
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", c.path, err)
		}
	}
}

// ---------------------------------------------------------------------------
// Lookup and record
// ---------------------------------------------------------------------------

// Lookup returns the cached translation for k. A nil cache never hits, and
// neither does one whose log could not be read.
func (c *Cache) Lookup(k Key) (string, bool) {
	if c == nil || c.Load() != nil {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.index[k.Fingerprint()]
	return e.TranslatedText, ok
}

// Record stores a translation for k and appends it to the log before
// returning. Recording on a nil cache does nothing.
func (c *Cache) Record(k Key, translated string) error {
	if c == nil {
		return nil
	}
	_ = c.Load()

	e := Entry{
		Fingerprint:    k.Fingerprint(),
		Provider:       k.Provider,
		Model:          k.Model,
		SourceLang:     k.SourceLang,
		TargetLang:     k.TargetLang,
		SourceText:     k.Text,
		TranslatedText: translated,
		CreatedAt:      c.now().UTC(),
	}

	c.mu.Lock()
	c.index[e.Fingerprint] = e
	c.mu.Unlock()

	return c.append(e)
}

func (c *Cache) append(e Entry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	line = append(line, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", c.path, err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", c.path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing %s: %w", c.path, err)
	}
	return f.Close()
}

// Len returns the number of distinct fingerprints in memory.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	_ = c.Load()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.index)
}
