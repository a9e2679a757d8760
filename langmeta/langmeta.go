// Package langmeta knows language names and infers language codes from
// locale file paths.
package langmeta

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Meta describes a language for prompts and CLI output.
type Meta struct {
	// Name is the English name, used in translation prompts.
	Name string
	// Native is the language's own name.
	Native string
}

// Registry maps canonical codes to metadata. Variants resolve through
// Resolve via normalization and base-language fallback.
var Registry = map[string]Meta{
	"af":    {Name: "Afrikaans", Native: "Afrikaans"},
	"am":    {Name: "Amharic", Native: "አማርኛ"},
	"ar":    {Name: "Arabic", Native: "العربية"},
	"az":    {Name: "Azerbaijani", Native: "Azərbaycanca"},
	"be":    {Name: "Belarusian", Native: "Беларуская"},
	"bg":    {Name: "Bulgarian", Native: "Български"},
	"bn":    {Name: "Bengali", Native: "বাংলা"},
	"bs":    {Name: "Bosnian", Native: "Bosanski"},
	"ca":    {Name: "Catalan", Native: "Català"},
	"cs":    {Name: "Czech", Native: "Čeština"},
	"cy":    {Name: "Welsh", Native: "Cymraeg"},
	"da":    {Name: "Danish", Native: "Dansk"},
	"de":    {Name: "German", Native: "Deutsch"},
	"de-AT": {Name: "German (Austria)", Native: "Deutsch (Österreich)"},
	"de-CH": {Name: "German (Switzerland)", Native: "Deutsch (Schweiz)"},
	"el":    {Name: "Greek", Native: "Ελληνικά"},
	"en":    {Name: "English", Native: "English"},
	"en-GB": {Name: "English (UK)", Native: "English (UK)"},
	"en-US": {Name: "English (US)", Native: "English (US)"},
	"es":    {Name: "Spanish", Native: "Español"},
	"es-MX": {Name: "Spanish (Mexico)", Native: "Español (México)"},
	"et":    {Name: "Estonian", Native: "Eesti"},
	"eu":    {Name: "Basque", Native: "Euskara"},
	"fa":    {Name: "Persian", Native: "فارسی"},
	"fi":    {Name: "Finnish", Native: "Suomi"},
	"fil":   {Name: "Filipino", Native: "Filipino"},
	"fr":    {Name: "French", Native: "Français"},
	"fr-CA": {Name: "French (Canada)", Native: "Français (Canada)"},
	"ga":    {Name: "Irish", Native: "Gaeilge"},
	"gl":    {Name: "Galician", Native: "Galego"},
	"gu":    {Name: "Gujarati", Native: "ગુજરાતી"},
	"he":    {Name: "Hebrew", Native: "עברית"},
	"hi":    {Name: "Hindi", Native: "हिन्दी"},
	"hr":    {Name: "Croatian", Native: "Hrvatski"},
	"hu":    {Name: "Hungarian", Native: "Magyar"},
	"hy":    {Name: "Armenian", Native: "Հայերեն"},
	"id":    {Name: "Indonesian", Native: "Bahasa Indonesia"},
	"is":    {Name: "Icelandic", Native: "Íslenska"},
	"it":    {Name: "Italian", Native: "Italiano"},
	"ja":    {Name: "Japanese", Native: "日本語"},
	"ka":    {Name: "Georgian", Native: "ქართული"},
	"kk":    {Name: "Kazakh", Native: "Қазақ тілі"},
	"km":    {Name: "Khmer", Native: "ខ្មែរ"},
	"ko":    {Name: "Korean", Native: "한국어"},
	"lt":    {Name: "Lithuanian", Native: "Lietuvių"},
	"lv":    {Name: "Latvian", Native: "Latviešu"},
	"mk":    {Name: "Macedonian", Native: "Македонски"},
	"ml":    {Name: "Malayalam", Native: "മലയാളം"},
	"mn":    {Name: "Mongolian", Native: "Монгол"},
	"mr":    {Name: "Marathi", Native: "मराठी"},
	"ms":    {Name: "Malay", Native: "Bahasa Melayu"},
	"my":    {Name: "Burmese", Native: "မြန်မာ"},
	"nb":    {Name: "Norwegian Bokmål", Native: "Norsk bokmål"},
	"ne":    {Name: "Nepali", Native: "नेपाली"},
	"nl":    {Name: "Dutch", Native: "Nederlands"},
	"nn":    {Name: "Norwegian Nynorsk", Native: "Norsk nynorsk"},
	"no":    {Name: "Norwegian", Native: "Norsk"},
	"pa":    {Name: "Punjabi", Native: "ਪੰਜਾਬੀ"},
	"pl":    {Name: "Polish", Native: "Polski"},
	"pt":    {Name: "Portuguese", Native: "Português"},
	"pt-BR": {Name: "Portuguese (Brazil)", Native: "Português (Brasil)"},
	"pt-PT": {Name: "Portuguese (Portugal)", Native: "Português (Portugal)"},
	"ro":    {Name: "Romanian", Native: "Română"},
	"ru":    {Name: "Russian", Native: "Русский"},
	"sk":    {Name: "Slovak", Native: "Slovenčina"},
	"sl":    {Name: "Slovenian", Native: "Slovenščina"},
	"sq":    {Name: "Albanian", Native: "Shqip"},
	"sr":    {Name: "Serbian", Native: "Српски"},
	"sv":    {Name: "Swedish", Native: "Svenska"},
	"sw":    {Name: "Swahili", Native: "Kiswahili"},
	"ta":    {Name: "Tamil", Native: "தமிழ்"},
	"te":    {Name: "Telugu", Native: "తెలుగు"},
	"th":    {Name: "Thai", Native: "ไทย"},
	"tr":    {Name: "Turkish", Native: "Türkçe"},
	"uk":    {Name: "Ukrainian", Native: "Українська"},
	"ur":    {Name: "Urdu", Native: "اردو"},
	"uz":    {Name: "Uzbek", Native: "O'zbek"},
	"vi":    {Name: "Vietnamese", Native: "Tiếng Việt"},
	"zh":    {Name: "Chinese", Native: "中文"},
	"zh-CN": {Name: "Chinese (Simplified)", Native: "简体中文"},
	"zh-TW": {Name: "Chinese (Traditional)", Native: "繁體中文"},
}

// Canonicalize normalizes a language code: "pt_br" becomes "pt-BR".
func Canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		if len(parts[1]) == 4 {
			// Script subtag, e.g. zh-Hant.
			parts[1] = strings.ToUpper(parts[1][:1]) + strings.ToLower(parts[1][1:])
		} else {
			parts[1] = strings.ToUpper(parts[1])
		}
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for a language code, supporting
// variants like pt_BR and falling back to the base language.
func Resolve(lang string) Meta {
	if m, ok := Registry[lang]; ok {
		return m
	}
	normalized := Canonicalize(lang)
	if m, ok := Registry[normalized]; ok {
		return m
	}
	if parts := strings.SplitN(normalized, "-", 2); len(parts) == 2 {
		if m, ok := Registry[parts[0]]; ok {
			return m
		}
	}
	return Meta{Name: lang, Native: lang}
}

// DisplayName renders a language for prompts: "German (de)". Unknown and
// empty codes pass through.
func DisplayName(lang string) string {
	if lang == "" || lang == "auto" {
		return lang
	}
	m := Resolve(lang)
	if m.Name == lang {
		return lang
	}
	return m.Name + " (" + lang + ")"
}

// ---------------------------------------------------------------------------
// Path inference
// ---------------------------------------------------------------------------

// leadingLangRe matches a language prefix such as "en.", "pt_BR." or
// "zh-Hant." at the start of a file name.
var leadingLangRe = regexp.MustCompile(`^([a-zA-Z]{2,3})([-_][a-zA-Z]{2,4})?(\..+)$`)

// dirLangRe matches a directory named after a language.
var dirLangRe = regexp.MustCompile(`^([a-zA-Z]{2,3})([-_][a-zA-Z]{2,4})?$`)

// FromFileName infers the primary language code (lowercased) from the
// leading part of a file name. ok is false when the name has no such
// prefix.
func FromFileName(path string) (string, bool) {
	m := leadingLangRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// FromPath infers the full language tag (e.g. "pt-BR") of a locale file,
// first from its file name, then from its parent directory
// ("locales/de/common.json"). Only languages in Registry count, so names
// like "app.json" are not mistaken for a language. It returns "" when
// nothing matches.
func FromPath(path string) string {
	if m := leadingLangRe.FindStringSubmatch(filepath.Base(path)); m != nil && known(m[1]) {
		return Canonicalize(m[1] + m[2])
	}
	dir := filepath.Base(filepath.Dir(path))
	if m := dirLangRe.FindStringSubmatch(dir); m != nil && known(m[1]) {
		return Canonicalize(m[1] + m[2])
	}
	return ""
}

func known(primary string) bool {
	_, ok := Registry[strings.ToLower(primary)]
	return ok
}

// ReplaceLeadingLang swaps the language prefix of the file name at path
// for lang. A name without a prefix becomes lang plus the original
// extension.
func ReplaceLeadingLang(path, lang string) string {
	dir, base := filepath.Dir(path), filepath.Base(path)
	if m := leadingLangRe.FindStringSubmatch(base); m != nil {
		return filepath.Join(dir, lang+m[3])
	}
	return filepath.Join(dir, lang+filepath.Ext(path))
}
