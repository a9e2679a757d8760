package translate

import (
	"strings"

	"github.com/minios-linux/locsync/langmeta"
)

// ---------------------------------------------------------------------------
// Prompts
// ---------------------------------------------------------------------------

const singlePromptTemplate = `You are a professional translator specializing in software and product localization. You are translating UI strings for a software application.

Translate the given string from {{sourceLang}} to {{targetLang}}.

TECHNICAL REQUIREMENTS:
- Return ONLY the translated text, no quotes, no explanations, no markdown code blocks.
- Preserve placeholders exactly as-is ({name}, {{count}}, %s, %1$d, %{count}).
- Preserve HTML-like tags, markdown emphasis markers and inline code.
- Preserve leading/trailing whitespace, newlines, and punctuation patterns.
- Keep brand names and proper nouns unchanged.`

const batchPromptTemplate = `You are a professional translator specializing in software and product localization. You are translating UI strings for a software application.

Translate each item from {{sourceLang}} to {{targetLang}}.

TECHNICAL REQUIREMENTS:
- The input is a JSON object {"items": [{"key": string, "text": string}, ...]}.
- Return ONLY valid JSON of the same shape, {"items": [{"key": string, "text": string}, ...]}, with every key exactly as given and "text" translated.
- Do not add, drop, or rename keys.
- Preserve placeholders exactly as-is ({name}, {{count}}, %s, %1$d, %{count}).
- Preserve HTML-like tags, markdown emphasis markers and inline code.
- Preserve punctuation and whitespace meaningfully.
- Keep brand names and proper nouns unchanged.`

// langPhrase renders a language for a prompt; unknown languages become
// the generic fallback.
func langPhrase(lang, fallback string) string {
	if lang == "" || lang == "auto" {
		return fallback
	}
	return langmeta.DisplayName(lang)
}

func fillLangs(tmpl string, l Langs) string {
	r := strings.NewReplacer(
		"{{sourceLang}}", langPhrase(l.Source, "the source language"),
		"{{targetLang}}", langPhrase(l.Target, "the target language"),
	)
	return r.Replace(tmpl)
}

func singleSystemPrompt(req Request) string {
	prompt := fillLangs(singlePromptTemplate, req.Langs)
	var hints []string
	for _, h := range req.PlaceholderHints {
		if h != "" {
			hints = append(hints, h)
		}
	}
	if len(hints) > 0 {
		prompt += "\n\nPlaceholders that MUST be preserved exactly (do not translate or modify): " + strings.Join(hints, ", ")
	}
	return prompt
}

func singleUserPrompt(req Request) string {
	return req.Text
}

func batchSystemPrompt(l Langs) string {
	return fillLangs(batchPromptTemplate, l)
}
