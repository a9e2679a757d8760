package translate

import (
	"github.com/minios-linux/locsync/placeholder"
)

// FormatOK reports whether translated keeps the formatting of base: the
// same placeholder tokens under every strategy (counting repeats), the
// same HTML-like tags, and the same markdown markers.
func FormatOK(strategies []placeholder.Strategy, base, translated string) bool {
	for _, st := range strategies {
		if !placeholder.SameCount(st, base, translated) {
			return false
		}
	}
	return placeholder.TagsOK(base, translated) && placeholder.MarkdownOK(base, translated)
}

// hints lists the placeholder tokens of text under every strategy.
func hints(strategies []placeholder.Strategy, text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, st := range strategies {
		for _, tok := range st.Set(text) {
			if !seen[tok] {
				seen[tok] = true
				out = append(out, tok)
			}
		}
	}
	return out
}
