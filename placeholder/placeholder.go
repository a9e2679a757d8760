// Package placeholder extracts variable-substitution tokens from
// translatable strings and compares them between base and translation.
package placeholder

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Style names.
const (
	Auto         = "auto"
	Brace        = "brace"
	Mustache     = "mustache"
	Printf       = "printf"
	KeyedPercent = "keyed-percent"
)

// DetectSampleLimit caps how many strings Detect looks at.
const DetectSampleLimit = 200

// Strategy is a named token extractor.
type Strategy struct {
	Name    string
	Extract func(s string) []string
}

var (
	braceRe    = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)
	mustacheRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)
	printfRe   = regexp.MustCompile(`%(?:\d+\$)?[sdif]`)
	keyedRe    = regexp.MustCompile(`%\{\s*([a-zA-Z0-9_]+)\s*\}`)
)

func submatches(re *regexp.Regexp) func(string) []string {
	return func(s string) []string {
		var out []string
		for _, m := range re.FindAllStringSubmatch(s, -1) {
			out = append(out, strings.TrimSpace(m[1]))
		}
		return out
	}
}

// strategies in tie-break precedence order.
var strategies = []Strategy{
	{Name: Brace, Extract: submatches(braceRe)},
	{Name: Mustache, Extract: submatches(mustacheRe)},
	{Name: Printf, Extract: func(s string) []string { return printfRe.FindAllString(s, -1) }},
	{Name: KeyedPercent, Extract: submatches(keyedRe)},
}

// All returns every built-in strategy in precedence order.
func All() []Strategy {
	out := make([]Strategy, len(strategies))
	copy(out, strategies)
	return out
}

// ByName looks up a strategy. "ruby" is accepted for keyed-percent.
func ByName(name string) (Strategy, error) {
	n := strings.TrimSpace(name)
	if n == "ruby" {
		n = KeyedPercent
	}
	for _, s := range strategies {
		if s.Name == n {
			return s, nil
		}
	}
	return Strategy{}, fmt.Errorf("unknown placeholder style %q (valid: auto, brace, mustache, printf, keyed-percent)", name)
}

// ParseStyles splits a comma-separated style list and validates each name.
// An empty input means auto.
func ParseStyles(s string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part != Auto {
			if _, err := ByName(part); err != nil {
				return nil, err
			}
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return []string{Auto}, nil
	}
	return out, nil
}

// Detect picks the strategy with the most tokens across up to
// DetectSampleLimit samples. Ties go to the earlier strategy in
// precedence order; no tokens at all means brace.
func Detect(samples []string) Strategy {
	if len(samples) > DetectSampleLimit {
		samples = samples[:DetectSampleLimit]
	}
	best, bestScore := strategies[0], 0
	for _, st := range strategies {
		score := 0
		for _, s := range samples {
			score += len(st.Extract(s))
		}
		if score > bestScore {
			best, bestScore = st, score
		}
	}
	return best
}

// Resolve turns configured style names into strategies. "auto" entries
// are replaced by the detected strategy; duplicates are kept so each
// configured style reports independently.
func Resolve(styles []string, samples []string) ([]Strategy, error) {
	if len(styles) == 0 {
		styles = []string{Auto}
	}
	var out []Strategy
	var detected *Strategy
	for _, name := range styles {
		if strings.TrimSpace(name) == Auto {
			if detected == nil {
				d := Detect(samples)
				detected = &d
			}
			out = append(out, *detected)
			continue
		}
		st, err := ByName(name)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Set returns the deduplicated, sorted tokens of s.
func (st Strategy) Set(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range st.Extract(s) {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}

// Same reports whether base and translated carry the same token set.
func Same(st Strategy, base, translated string) bool {
	return equalStrings(st.Set(base), st.Set(translated))
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
