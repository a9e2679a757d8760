// Package check compares target locale files against the base locale and
// reports structural and placeholder drift.
package check

import (
	"errors"
	"fmt"
	"strings"

	"github.com/minios-linux/locsync/keyspace"
	"github.com/minios-linux/locsync/localefile"
	"github.com/minios-linux/locsync/placeholder"
	"github.com/minios-linux/locsync/tree"
)

// Options controls a check run.
type Options struct {
	KeyStyle          keyspace.Style
	PlaceholderStyles []string
	IgnoreKeys        []string
	// TreatSameAsUntranslated reports target strings equal to the base.
	TreatSameAsUntranslated bool
	// FailFast stops at the first parse error.
	FailFast bool
}

// Base is the decoded and flattened base locale. Fix and translate start
// from it too.
type Base struct {
	Doc        *localefile.Document
	Style      keyspace.Style
	Flat       *tree.Map
	Strategies []placeholder.Strategy
	Ignore     map[string]bool
}

// Prepare decodes the base file and resolves the effective key style and
// placeholder strategies. Ignored keys are removed from Flat.
func Prepare(path string, opts Options) (*Base, error) {
	doc, err := localefile.Decode(path)
	if err != nil {
		return nil, err
	}
	return PrepareDocument(doc, opts)
}

// PrepareDocument is Prepare for an already decoded base document.
func PrepareDocument(doc *localefile.Document, opts Options) (*Base, error) {
	style := keyspace.Resolve(opts.KeyStyle, doc.Value)
	flat, err := keyspace.ToFlat(doc.Value, style)
	if err != nil {
		return nil, asDecodeError(doc.Path, err)
	}

	var samples []string
	flat.Range(func(_ string, v any) bool {
		if s, ok := v.(string); ok {
			samples = append(samples, s)
		}
		return len(samples) < placeholder.DetectSampleLimit
	})
	strategies, err := placeholder.Resolve(opts.PlaceholderStyles, samples)
	if err != nil {
		return nil, err
	}

	ignore := make(map[string]bool, len(opts.IgnoreKeys))
	for _, k := range opts.IgnoreKeys {
		ignore[k] = true
	}
	return &Base{
		Doc:        doc,
		Style:      style,
		Flat:       keyspace.Filter(flat, ignore),
		Strategies: strategies,
		Ignore:     ignore,
	}, nil
}

// Flatten converts a target document at the base's key style and drops
// ignored keys.
func (b *Base) Flatten(doc *localefile.Document) (*tree.Map, error) {
	flat, err := keyspace.ToFlat(doc.Value, b.Style)
	if err != nil {
		return nil, asDecodeError(doc.Path, err)
	}
	return keyspace.Filter(flat, b.Ignore), nil
}

// asDecodeError reports a leaf-shape problem as a decode failure of path.
func asDecodeError(path string, err error) error {
	var le *keyspace.LeafError
	if errors.As(err, &le) {
		return &localefile.DecodeError{Path: path, Err: err}
	}
	return err
}

// IsEmpty reports whether v is a blank string.
func IsEmpty(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// IsUntranslated reports whether target is a string identical to base.
func IsUntranslated(base, target any) bool {
	bs, ok1 := base.(string)
	ts, ok2 := target.(string)
	return ok1 && ok2 && bs == ts
}

// Compare diffs one flattened target against the base. Issues come out
// grouped missing, extra, then per shared key in base order.
func (b *Base) Compare(file string, target *tree.Map, treatSame bool) []Issue {
	var out []Issue

	for _, k := range b.Flat.Keys() {
		if !target.Has(k) {
			out = append(out, Issue{Kind: MissingKey, File: file, Key: k, Message: "Missing key: " + k})
		}
	}
	for _, k := range target.Keys() {
		if !b.Flat.Has(k) {
			out = append(out, Issue{Kind: ExtraKey, File: file, Key: k, Message: "Extra key not in base: " + k})
		}
	}

	b.Flat.Range(func(k string, bv any) bool {
		tv, ok := target.Get(k)
		if !ok {
			return true
		}
		if IsEmpty(tv) {
			out = append(out, Issue{Kind: EmptyValue, File: file, Key: k, Message: "Empty value for key: " + k})
		}
		if treatSame && IsUntranslated(bv, tv) {
			out = append(out, Issue{Kind: Untranslated, File: file, Key: k,
				Message: "Value equals base (possibly untranslated): " + k})
		}
		bs, ok1 := bv.(string)
		ts, ok2 := tv.(string)
		// A blank target is already reported as empty; its missing
		// placeholders are not a second finding.
		if !ok1 || !ok2 || IsEmpty(ts) {
			return true
		}
		for _, st := range b.Strategies {
			if placeholder.Same(st, bs, ts) {
				continue
			}
			bset, tset := st.Set(bs), st.Set(ts)
			out = append(out, Issue{
				Kind:    PlaceholderMismatch,
				File:    file,
				Key:     k,
				Message: fmt.Sprintf("Placeholder mismatch (%s) for key: %s", st.Name, k),
				Details: &Details{Base: nonNil(bset), Target: nonNil(tset), Style: st.Name},
			})
		}
		return true
	})
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Run checks every target against base. A base that cannot be read yields
// a report holding a single parse error. The returned error is reserved
// for invalid options.
func Run(base string, targets []string, opts Options) (*Report, error) {
	report := NewReport(base, targets)

	b, err := Prepare(base, opts)
	if err != nil {
		var de *localefile.DecodeError
		if !errors.As(err, &de) {
			return nil, err
		}
		report.Add(Issue{Kind: ParseError, File: base, Message: "Failed to read base locale file: " + err.Error()})
		return report, nil
	}

	for _, path := range targets {
		flat, err := LoadTarget(b, path)
		if err != nil {
			report.Add(Issue{Kind: ParseError, File: path, Message: "Failed to read target locale file: " + err.Error()})
			if opts.FailFast {
				return report, nil
			}
			continue
		}
		for _, is := range b.Compare(path, flat, opts.TreatSameAsUntranslated) {
			report.Add(is)
		}
	}
	return report, nil
}

// LoadTarget decodes and flattens a target file.
func LoadTarget(b *Base, path string) (*tree.Map, error) {
	doc, err := localefile.Decode(path)
	if err != nil {
		return nil, err
	}
	return b.Flatten(doc)
}
