package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/minios-linux/locsync/localefile"
	"github.com/minios-linux/locsync/tree"
)

const starter = `# locsync configuration.
#
# base is the source-of-truth locale; targets are checked, fixed and
# translated against it. Targets may be globs such as "locales/*.json".
base: %s
targets:
%s
# auto, nested or flat
keyStyle: auto
# auto, brace, mustache, printf, keyed-percent (or a list)
placeholderStyle: auto
ignoreKeys: []
treatSameAsBaseAsUntranslated: true

# translate:
#   provider: openai        # openai, openrouter, groq, ollama, custom-openai, claude, gemini
#   apiKeyEnv: OPENAI_API_KEY
#   model: gpt-4o-mini
#   batchSize: 25
#   concurrency: 3
#   retryCount: 3
#   retryBaseDelayMs: 400
#   delayMs: 0
#   cache: true
`

// WriteStarter writes a commented starter config to dir/.locsync.yaml. It
// refuses to replace an existing file unless force is set.
func WriteStarter(dir, base string, targets []string, force bool) (string, error) {
	path := filepath.Join(dir, FileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return path, fmt.Errorf("checking %s: %w", path, err)
		}
	}
	if base == "" {
		base = "locales/en.json"
	}
	if len(targets) == 0 {
		targets = []string{"locales/zh.json"}
	}

	var list strings.Builder
	for _, t := range targets {
		list.WriteString("  - " + strconv.Quote(t) + "\n")
	}
	data := fmt.Sprintf(starter, strconv.Quote(base), list.String())
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return path, fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// AppendTargets adds paths to the targets list of the config file at
// path, skipping entries already listed or matched by a listed glob.
// Comments and key order are kept. Paths are stored relative to the
// config's directory.
func AppendTargets(path string, paths []string) (added []string, err error) {
	doc, err := localefile.Decode(path)
	if err != nil {
		return nil, err
	}
	root, ok := tree.AsMap(doc.Value)
	if !ok {
		return nil, fmt.Errorf("%s: top level is not a mapping", path)
	}

	cur, _ := root.Get("targets")
	list, _ := cur.([]any)
	have := make(map[string]bool, len(list))
	var globs []string
	for _, v := range list {
		if s, ok := v.(string); ok {
			have[filepath.Clean(s)] = true
			if hasMeta(s) {
				globs = append(globs, s)
			}
		}
	}
	covered := func(rel string) bool {
		if have[filepath.Clean(rel)] {
			return true
		}
		for _, g := range globs {
			if ok, _ := doublestar.Match(g, rel); ok {
				return true
			}
		}
		return false
	}

	dir := filepath.Dir(path)
	for _, p := range paths {
		rel := p
		if r, err := filepath.Rel(dir, p); err == nil {
			rel = filepath.ToSlash(r)
		}
		if covered(rel) {
			continue
		}
		have[filepath.Clean(rel)] = true
		list = append(list, rel)
		added = append(added, rel)
	}
	if len(added) == 0 {
		return nil, nil
	}
	root.Set("targets", list)
	return added, localefile.Write(path, doc, root)
}
