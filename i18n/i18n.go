// Package i18n translates locsync's own messages.
//
// Catalogs are gettext PO files embedded in the binary under
// locales/{lang}/LC_MESSAGES/locsync.po and read with gotext. Lookups
// before Init, or for strings without a translation, return the msgid.
package i18n

import (
	"embed"
	"os"
	"strings"
	"sync"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var locales embed.FS

// domain is the gettext domain of the catalogs.
const domain = "locsync"

// EnvLang overrides the locale environment for locsync's messages.
const EnvLang = "LOCSYNC_LANG"

var (
	mu   sync.RWMutex
	po   *gotext.Locale
	lang string
)

// Init loads the catalog for lang. An empty lang is taken from
// LOCSYNC_LANG, then LANGUAGE, LC_ALL, LC_MESSAGES and LANG.
func Init(l string) {
	if l == "" {
		l = detectLanguage()
	}
	loc := gotext.NewLocaleFSWithPath(l, locales, "locales")
	loc.AddDomain(domain)
	loc.SetDomain(domain)

	mu.Lock()
	po, lang = loc, l
	mu.Unlock()
}

// Lang returns the language passed to (or detected by) Init.
func Lang() string {
	mu.RLock()
	defer mu.RUnlock()
	return lang
}

// T translates msgid.
func T(msgid string) string {
	mu.RLock()
	loc := po
	mu.RUnlock()
	if loc == nil {
		return msgid
	}
	return loc.Get(msgid)
}

// N translates a message with plural forms, choosing by n.
func N(singular, plural string, n int) string {
	mu.RLock()
	loc := po
	mu.RUnlock()
	if loc == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return loc.GetN(singular, plural, n)
}

// detectLanguage follows gettext's variable order, with LOCSYNC_LANG in
// front. "C" and "POSIX" mean untranslated.
func detectLanguage() string {
	for _, env := range []string{EnvLang, "LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// "ru_RU.UTF-8" -> "ru_RU", "sr_RS@latin" -> "sr_RS"
		if i := strings.IndexAny(val, ".@"); i >= 0 {
			val = val[:i]
		}
		if val == "" || val == "C" || val == "POSIX" {
			continue
		}
		return val
	}
	return "en"
}
