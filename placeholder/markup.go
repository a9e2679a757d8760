package placeholder

import (
	"regexp"
	"sort"
	"strings"
)

var tagRe = regexp.MustCompile(`<(/?)([a-zA-Z][a-zA-Z0-9-]*)\b[^<>]*?(/?)>`)

// markdownMarkers are counted, not parsed. Single '*' and '_' are left out
// because they show up in ordinary text far too often.
var markdownMarkers = []string{"**", "__", "~~", "`"}

// Tokens returns the tokens of s in sorted order, duplicates kept.
func (st Strategy) Tokens(s string) []string {
	out := st.Extract(s)
	sort.Strings(out)
	return out
}

// SameCount compares token multisets: every token must appear as many
// times in translated as in base.
func SameCount(st Strategy, base, translated string) bool {
	return equalStrings(st.Tokens(base), st.Tokens(translated))
}

// Tags returns the sorted multiset of HTML-like tags in s, reduced to
// their names ("<b>", "</b>", "<br/>"). Attribute values may be
// translated, so they are not part of the token.
func Tags(s string) []string {
	var out []string
	for _, m := range tagRe.FindAllStringSubmatch(s, -1) {
		out = append(out, "<"+m[1]+strings.ToLower(m[2])+m[3]+">")
	}
	sort.Strings(out)
	return out
}

// TagsOK reports whether both strings carry the same tags.
func TagsOK(base, translated string) bool {
	return equalStrings(Tags(base), Tags(translated))
}

// MarkdownCounts counts emphasis and inline-code markers.
func MarkdownCounts(s string) map[string]int {
	counts := make(map[string]int, len(markdownMarkers))
	rest := s
	for _, m := range markdownMarkers {
		counts[m] = strings.Count(rest, m)
		// Remove counted markers so "**" is not also counted as two '*'-based markers later.
		rest = strings.ReplaceAll(rest, m, " ")
	}
	return counts
}

// MarkdownOK reports whether both strings carry the same marker counts.
func MarkdownOK(base, translated string) bool {
	a, b := MarkdownCounts(base), MarkdownCounts(translated)
	for _, m := range markdownMarkers {
		if a[m] != b[m] {
			return false
		}
	}
	return true
}
