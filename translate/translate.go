// Package translate fills target locale files with machine translations.
// Keys are selected per mode, grouped into batches, and sent through a
// bounded worker pool to an AI provider, with a content-addressed cache,
// retries for transient failures, and a single-item fallback when batch
// output is missing or drops formatting.
package translate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/minios-linux/locsync/cache"
	"github.com/minios-linux/locsync/check"
	"github.com/minios-linux/locsync/fix"
	"github.com/minios-linux/locsync/keyspace"
	"github.com/minios-linux/locsync/langmeta"
	"github.com/minios-linux/locsync/localefile"
	"github.com/minios-linux/locsync/tree"
)

// DefaultOutDir receives translated files unless writing in place.
const DefaultOutDir = "translated"

// ---------------------------------------------------------------------------
// Modes
// ---------------------------------------------------------------------------

// Mode selects which keys of a target are translated.
type Mode string

const (
	// ModeMissing selects keys absent from the target.
	ModeMissing Mode = "missing"
	// ModeEmpty selects keys whose target value is blank.
	ModeEmpty Mode = "empty"
	// ModeUntranslated selects keys whose target value equals the base.
	ModeUntranslated Mode = "untranslated"
	// ModeAll selects every key with a missing, empty, untranslated, or
	// placeholder-mismatch finding.
	ModeAll Mode = "all"
)

// ParseMode validates a mode name. Empty means ModeAll.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAll, nil
	case ModeMissing, ModeEmpty, ModeUntranslated, ModeAll:
		return m, nil
	}
	return "", fmt.Errorf("invalid mode %q (expected missing, empty, untranslated or all)", s)
}

// ---------------------------------------------------------------------------
// Options and results
// ---------------------------------------------------------------------------

// Options controls a translation run.
type Options struct {
	Check    check.Options
	Mode     Mode
	Provider Provider
	// Cache is consulted before any network call. Nil disables caching.
	Cache *cache.Cache

	// SourceLang and TargetLang override the languages inferred from the
	// file paths.
	SourceLang string
	TargetLang string

	// MaxItems caps the items translated per file; zero means no cap.
	MaxItems int
	// BatchSize is the number of items per request. Default: 25.
	BatchSize int
	// Concurrency is the number of batches in flight. Default: 3.
	Concurrency int
	Retry       RetryPolicy
	// Delay is slept by a worker after each batch it finishes.
	Delay time.Duration

	// InPlace overwrites the targets; otherwise files go to OutDir.
	InPlace bool
	OutDir  string

	// FailFast stops at the first item that cannot be translated, without
	// writing the file it belongs to.
	FailFast bool
	// Verbose logs base and translated text for every key.
	Verbose bool
	Logger  zerolog.Logger
}

func (o *Options) effectiveBatchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return 25
}

func (o *Options) effectiveConcurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return 3
}

func (o *Options) effectiveOutDir() string {
	if o.OutDir != "" {
		return o.OutDir
	}
	return DefaultOutDir
}

// FileResult describes the translation of one target.
type FileResult struct {
	Path       string
	OutPath    string
	SourceLang string
	TargetLang string
	// Eligible counts the selected keys before the MaxItems cap; Remaining
	// is what the cap left for a later run.
	Eligible   int
	Remaining  int
	Batches    int
	Translated int
	Failed     int
	CacheHits  int
	Written    bool
	// Err is set when the target could not be read.
	Err error
}

// Summary aggregates a run.
type Summary struct {
	Files       []FileResult
	Translated  int
	Failed      int
	CacheHits   int
	ParseErrors int
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

// Run translates every target in turn. A base that cannot be read stops
// the run. Targets that cannot be read and items that end up without a
// translation are counted; when any were, the returned error is a
// *FailureError, after every other target was processed and written.
// With FailFast, the first such problem is returned instead and nothing
// more is written.
func Run(ctx context.Context, base string, targets []string, opts Options) (*Summary, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("no translation provider configured")
	}
	if opts.Mode == "" {
		opts.Mode = ModeAll
	}
	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}

	b, err := check.Prepare(base, opts.Check)
	if err != nil {
		return nil, fmt.Errorf("reading base locale: %w", err)
	}

	sourceLang := opts.SourceLang
	if sourceLang == "" {
		sourceLang = langmeta.FromPath(base)
	}

	sum := &Summary{}
	for _, path := range targets {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		fr, err := translateFile(ctx, b, path, sourceLang, &opts)
		sum.Files = append(sum.Files, fr)
		sum.Translated += fr.Translated
		sum.Failed += fr.Failed
		sum.CacheHits += fr.CacheHits
		if fr.Err != nil {
			sum.ParseErrors++
			opts.Logger.Error().Err(fr.Err).Str("file", path).Msg("Cannot read target locale")
			if opts.FailFast {
				return sum, fr.Err
			}
			continue
		}
		if err != nil {
			return sum, err
		}
	}

	if sum.Failed > 0 || sum.ParseErrors > 0 {
		return sum, &FailureError{Failed: sum.Failed, ParseErrors: sum.ParseErrors}
	}
	return sum, nil
}

// translateFile runs the pipeline for one target. Read failures are
// reported through FileResult.Err; the error return aborts the run.
func translateFile(ctx context.Context, b *check.Base, path, sourceLang string, opts *Options) (FileResult, error) {
	fr := FileResult{Path: path, OutPath: path}
	if !opts.InPlace {
		fr.OutPath = fix.OutputPath(opts.effectiveOutDir(), path)
	}
	log := opts.Logger.With().Str("file", path).Logger()

	doc, err := localefile.Decode(path)
	if err != nil {
		fr.Err = err
		return fr, nil
	}
	flat, err := keyspace.ToFlat(doc.Value, b.Style)
	if err != nil {
		fr.Err = &localefile.DecodeError{Path: path, Err: err}
		return fr, nil
	}

	fr.SourceLang = langOrAuto(sourceLang)
	fr.TargetLang = opts.TargetLang
	if fr.TargetLang == "" {
		fr.TargetLang = langmeta.FromPath(path)
	}
	fr.TargetLang = langOrAuto(fr.TargetLang)

	keys := SelectKeys(b, path, keyspace.Filter(flat, b.Ignore), opts.Mode, opts.Check.TreatSameAsUntranslated)
	fr.Eligible = len(keys)
	if opts.MaxItems > 0 && len(keys) > opts.MaxItems {
		keys = keys[:opts.MaxItems]
		fr.Remaining = fr.Eligible - len(keys)
		log.Warn().Int("matching", fr.Eligible).Int("maxItems", opts.MaxItems).Int("remaining", fr.Remaining).
			Msg("Item cap reached, re-run translate to process the rest")
	}
	if len(keys) == 0 {
		log.Info().Str("mode", string(opts.Mode)).Msg("No items to translate")
		return fr, nil
	}

	batches := makeBatches(b, keys, opts.effectiveBatchSize())
	fr.Batches = len(batches)
	log.Info().Int("items", len(keys)).Int("batches", len(batches)).
		Str("from", fr.SourceLang).Str("to", fr.TargetLang).Str("mode", string(opts.Mode)).
		Msg("Translating")

	run := &fileRun{
		opts:  opts,
		b:     b,
		file:  path,
		langs: Langs{Source: knownLang(fr.SourceLang), Target: knownLang(fr.TargetLang)},
		flat:  flat,
		res:   &fr,
		log:   log,
	}
	err = runPool(ctx, len(batches), opts.effectiveConcurrency(), opts.Delay, func(ctx context.Context, i int) error {
		return run.batch(ctx, batches[i])
	})
	if err != nil {
		return fr, err
	}

	if err := localefile.Write(fr.OutPath, doc, keyspace.FromFlat(flat, b.Style)); err != nil {
		return fr, err
	}
	fr.Written = true
	ev := log.Info()
	if fr.Failed > 0 {
		ev = log.Warn()
	}
	ev.Str("out", fr.OutPath).Int("translated", fr.Translated).Int("failed", fr.Failed).
		Int("cached", fr.CacheHits).Msg("Wrote translated locale")
	return fr, nil
}

// SelectKeys returns the base keys of target to translate under mode, in
// base order. Only keys whose base value is a non-blank string qualify.
// target must already be filtered of ignored keys.
func SelectKeys(b *check.Base, file string, target *tree.Map, mode Mode, treatSame bool) []string {
	var flagged map[string]bool
	if mode == ModeAll {
		flagged = make(map[string]bool)
		for _, is := range b.Compare(file, target, treatSame) {
			switch is.Kind {
			case check.MissingKey, check.EmptyValue, check.Untranslated, check.PlaceholderMismatch:
				flagged[is.Key] = true
			}
		}
	}

	var keys []string
	b.Flat.Range(func(k string, bv any) bool {
		bs, ok := bv.(string)
		if !ok || strings.TrimSpace(bs) == "" {
			return true
		}
		tv, has := target.Get(k)
		var sel bool
		switch mode {
		case ModeMissing:
			sel = !has
		case ModeEmpty:
			sel = has && check.IsEmpty(tv)
		case ModeUntranslated:
			sel = has && treatSame && check.IsUntranslated(bv, tv)
		case ModeAll:
			sel = flagged[k]
		}
		if sel {
			keys = append(keys, k)
		}
		return true
	})
	return keys
}

func makeBatches(b *check.Base, keys []string, size int) [][]Item {
	var out [][]Item
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		batch := make([]Item, 0, end-start)
		for _, k := range keys[start:end] {
			v, _ := b.Flat.Get(k)
			batch = append(batch, Item{Key: k, Text: v.(string)})
		}
		out = append(out, batch)
	}
	return out
}

func langOrAuto(lang string) string {
	if lang == "" {
		return "auto"
	}
	return lang
}

func knownLang(lang string) string {
	if lang == "auto" {
		return ""
	}
	return lang
}

// ---------------------------------------------------------------------------
// Per-file pipeline
// ---------------------------------------------------------------------------

// fileRun is the state shared by the workers of one target. flat and res
// are guarded by mu.
type fileRun struct {
	opts  *Options
	b     *check.Base
	file  string
	langs Langs
	log   zerolog.Logger

	mu   sync.Mutex
	flat *tree.Map
	res  *FileResult
}

func (r *fileRun) cacheKey(text string) cache.Key {
	return cache.Key{
		Provider:   r.opts.Provider.Name(),
		Model:      r.opts.Provider.Model(),
		SourceLang: r.langs.Source,
		TargetLang: r.langs.Target,
		Text:       text,
	}
}

// batch translates one batch: cache first, then one batch request for
// the misses, then single-item requests for whatever is still blank or
// fails validation.
func (r *fileRun) batch(ctx context.Context, items []Item) error {
	cached := make(map[string]string)
	var misses []Item
	for _, it := range items {
		if t, ok := r.opts.Cache.Lookup(r.cacheKey(it.Text)); ok {
			cached[it.Key] = t
		} else {
			misses = append(misses, it)
		}
	}

	var batchRes *BatchResult
	if len(misses) > 0 {
		res, err := withRetry(ctx, r.opts.Retry, func(ctx context.Context) (*BatchResult, error) {
			return r.opts.Provider.TranslateBatch(ctx, misses, r.langs)
		})
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			r.log.Warn().Err(err).Int("items", len(misses)).Msg("Batch translate failed, falling back to single-item mode")
		default:
			batchRes = res
			if len(res.Extras) > 0 {
				r.log.Warn().Strs("keys", firstN(res.Extras, 5)).Int("count", len(res.Extras)).Msg("Batch returned extra keys (ignored)")
			}
			if len(res.Duplicates) > 0 {
				r.log.Warn().Strs("keys", firstN(res.Duplicates, 5)).Int("count", len(res.Duplicates)).Msg("Batch returned duplicate keys")
			}
		}
	}

	for _, it := range items {
		text, fromCache := cached[it.Key]
		if !fromCache && batchRes != nil {
			text = batchRes.Translations[it.Key]
		}
		if isBlank(text) {
			fromCache = false
			text = r.single(ctx, it)
		}
		if !isBlank(text) && !FormatOK(r.b.Strategies, it.Text, text) {
			r.log.Warn().Str("key", it.Key).Msg("Translation changed placeholders or markup, re-translating")
			if again := r.single(ctx, it); !isBlank(again) && FormatOK(r.b.Strategies, it.Text, again) {
				text, fromCache = again, false
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := r.commit(it, text, fromCache); err != nil {
			return err
		}
	}
	return nil
}

// single translates one item on its own, with placeholder hints. It
// returns "" on failure.
func (r *fileRun) single(ctx context.Context, it Item) string {
	req := Request{Text: it.Text, Langs: r.langs, PlaceholderHints: hints(r.b.Strategies, it.Text)}
	text, err := withRetry(ctx, r.opts.Retry, func(ctx context.Context) (string, error) {
		return r.opts.Provider.TranslateOne(ctx, req)
	})
	if err != nil {
		r.log.Debug().Err(err).Str("key", it.Key).Msg("Single-item translation failed")
		return ""
	}
	return text
}

// commit stores a result in the shared map and the cache, or counts the
// item as failed.
func (r *fileRun) commit(it Item, text string, fromCache bool) error {
	if isBlank(text) {
		r.mu.Lock()
		r.res.Failed++
		r.mu.Unlock()
		r.log.Warn().Str("key", it.Key).Msg("No translation")
		if r.opts.FailFast {
			return &ItemError{File: r.file, Key: it.Key}
		}
		return nil
	}

	r.mu.Lock()
	r.flat.Set(it.Key, text)
	r.res.Translated++
	if fromCache {
		r.res.CacheHits++
	}
	r.mu.Unlock()

	if !fromCache {
		if err := r.opts.Cache.Record(r.cacheKey(it.Text), text); err != nil {
			r.log.Warn().Err(err).Msg("Cannot write translation cache")
		}
	}
	if r.opts.Verbose {
		r.log.Info().Str("key", it.Key).Str("base", it.Text).Str("translated", text).Bool("cached", fromCache).Msg("Translated")
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
