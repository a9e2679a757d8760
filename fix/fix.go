// Package fix repairs the key structure of target locale files so it
// matches the base locale.
package fix

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/minios-linux/locsync/check"
	"github.com/minios-linux/locsync/keyspace"
	"github.com/minios-linux/locsync/localefile"
	"github.com/minios-linux/locsync/tree"
)

// DefaultOutDir receives fixed files unless writing in place.
const DefaultOutDir = "fixed"

// Policy selects what Apply changes.
type Policy struct {
	// DropExtraKeys removes target keys the base does not have.
	DropExtraKeys bool
	// FillFromBase seeds missing keys with the base value instead of "".
	FillFromBase bool
}

// Apply returns a repaired copy of target. Values of keys present on both
// sides are never touched, and ignored keys are never dropped. Applying
// the same policy to the result changes nothing.
func Apply(base, target *tree.Map, ignore map[string]bool, p Policy) (out *tree.Map, added, removed int) {
	out = tree.Clone(target).(*tree.Map)
	if p.DropExtraKeys {
		for _, k := range out.Keys() {
			if !ignore[k] && !base.Has(k) {
				out.Delete(k)
				removed++
			}
		}
	}
	base.Range(func(k string, v any) bool {
		if out.Has(k) {
			return true
		}
		if p.FillFromBase {
			out.Set(k, tree.Clone(v))
		} else {
			out.Set(k, "")
		}
		added++
		return true
	})
	return out, added, removed
}

// Options controls a fix run.
type Options struct {
	Check check.Options
	Policy
	// InPlace overwrites the targets; otherwise files go to OutDir.
	InPlace bool
	OutDir  string
	Logger  zerolog.Logger
}

// FileResult describes what happened to one target.
type FileResult struct {
	Path    string
	OutPath string
	Added   int
	Removed int
	Created bool
	// Err is set when the target was skipped.
	Err error
}

// Result is the outcome of Run.
type Result struct {
	Report *check.Report
	Files  []FileResult
}

// Run checks the targets, then repairs and writes each one. Targets that
// fail to decode are reported and skipped; a target that does not exist
// is created. A base that cannot be read stops the run after the check.
func Run(base string, targets []string, opts Options) (*Result, error) {
	report, err := check.Run(base, targets, opts.Check)
	if err != nil {
		return nil, err
	}
	res := &Result{Report: report}

	b, err := check.Prepare(base, opts.Check)
	if err != nil {
		opts.Logger.Error().Err(err).Str("file", base).Msg("Cannot read base locale, nothing fixed")
		return res, nil
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = DefaultOutDir
	}

	for _, path := range targets {
		fr := FileResult{Path: path, OutPath: path}
		if !opts.InPlace {
			fr.OutPath = OutputPath(outDir, path)
		}

		doc, flat, created, err := openTarget(b, path)
		if err != nil {
			fr.Err = err
			opts.Logger.Warn().Err(err).Str("file", path).Msg("Skipping target")
			res.Files = append(res.Files, fr)
			continue
		}
		fr.Created = created

		fixed, added, removed := Apply(b.Flat, flat, b.Ignore, opts.Policy)
		fr.Added, fr.Removed = added, removed
		if err := localefile.Write(fr.OutPath, doc, keyspace.FromFlat(fixed, b.Style)); err != nil {
			return res, err
		}
		opts.Logger.Info().Str("file", fr.OutPath).Int("added", added).Int("removed", removed).Msg("Wrote fixed locale")
		res.Files = append(res.Files, fr)
	}
	return res, nil
}

// openTarget decodes a target and flattens it at the base key style
// without dropping ignored keys. A missing file yields a new document in
// the base's wrapper.
func openTarget(b *check.Base, path string) (doc *localefile.Document, flat *tree.Map, created bool, err error) {
	doc, err = localefile.Decode(path)
	if errors.Is(err, os.ErrNotExist) {
		doc, err = localefile.New(path, b.Doc.Wrapper)
		if err != nil {
			return nil, nil, false, err
		}
		return doc, tree.NewMap(), true, nil
	}
	if err != nil {
		return nil, nil, false, err
	}
	flat, err = keyspace.ToFlat(doc.Value, b.Style)
	if err != nil {
		return nil, nil, false, &localefile.DecodeError{Path: path, Err: err}
	}
	return doc, flat, false, nil
}

// OutputPath maps a target into outDir. Relative targets keep their
// directory layout so "locales/de/app.json" and "locales/fr/app.json" do
// not collide; absolute or parent-relative targets keep only their base
// name.
func OutputPath(outDir, target string) string {
	clean := filepath.Clean(target)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return filepath.Join(outDir, filepath.Base(clean))
	}
	return filepath.Join(outDir, clean)
}

// Summary renders per-file counts for CLI output.
func (r *Result) Summary() string {
	var b strings.Builder
	for _, f := range r.Files {
		switch {
		case f.Err != nil:
			fmt.Fprintf(&b, "  %s: skipped (%v)\n", f.Path, f.Err)
		case f.Created:
			fmt.Fprintf(&b, "  %s: created with %d keys\n", f.OutPath, f.Added)
		default:
			fmt.Fprintf(&b, "  %s: +%d -%d\n", f.OutPath, f.Added, f.Removed)
		}
	}
	return b.String()
}
