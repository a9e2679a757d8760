package fix

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/minios-linux/locsync/langmeta"
	"github.com/minios-linux/locsync/localefile"
	"github.com/minios-linux/locsync/tree"
)

// NewResult lists what CreateTargets did. Targets is the configured
// target list extended with every created or already existing file.
type NewResult struct {
	Created []string
	Skipped []string
	Targets []string
}

// CreateTargets creates locale files for new languages, seeded with the
// base values. File names follow the first existing target, or the base
// when there are no targets: with "locales/fr.ts" as the pattern, "ja"
// becomes "locales/ja.ts". Files that already exist are left alone.
func CreateTargets(base string, targets, langs []string, log zerolog.Logger) (*NewResult, error) {
	langs = uniqueLangs(langs)
	if len(langs) == 0 {
		return nil, fmt.Errorf("no languages given")
	}

	baseDoc, err := localefile.Decode(base)
	if err != nil {
		return nil, err
	}

	pattern := base
	if len(targets) > 0 {
		pattern = targets[0]
	}
	baseLang, _ := langmeta.FromFileName(base)

	res := &NewResult{Targets: append([]string(nil), targets...)}
	inTargets := make(map[string]bool, len(targets))
	for _, t := range targets {
		inTargets[filepath.Clean(t)] = true
	}
	addTarget := func(p string) {
		if !inTargets[filepath.Clean(p)] {
			inTargets[filepath.Clean(p)] = true
			res.Targets = append(res.Targets, p)
		}
	}

	for _, lang := range langs {
		if baseLang != "" && strings.EqualFold(lang, baseLang) {
			continue
		}
		out := targetPath(pattern, base, lang)

		if _, err := os.Stat(out); err == nil {
			res.Skipped = append(res.Skipped, out)
			addTarget(out)
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return res, fmt.Errorf("checking %s: %w", out, err)
		}

		doc, err := localefile.New(out, baseDoc.Wrapper)
		if err != nil {
			return res, err
		}
		if err := localefile.Write(out, doc, tree.Clone(baseDoc.Value)); err != nil {
			return res, err
		}
		log.Info().Str("file", out).Str("lang", lang).Msg("Created locale file")
		res.Created = append(res.Created, out)
		addTarget(out)
	}
	return res, nil
}

func targetPath(pattern, base, lang string) string {
	if _, ok := langmeta.FromFileName(pattern); ok {
		return langmeta.ReplaceLeadingLang(pattern, lang)
	}
	if _, ok := langmeta.FromFileName(base); ok {
		return langmeta.ReplaceLeadingLang(base, lang)
	}
	return filepath.Join(filepath.Dir(base), lang+filepath.Ext(base))
}

func uniqueLangs(langs []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range langs {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
