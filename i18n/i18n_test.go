package i18n

import "testing"

func clearLocaleEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{EnvLang, "LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		t.Setenv(env, "")
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"LOCSYNC_LANG first", map[string]string{EnvLang: "de", "LANGUAGE": "ru"}, "de"},
		{"LANGUAGE list", map[string]string{"LANGUAGE": "ru_RU.UTF-8:en_US", "LC_ALL": "de_DE.UTF-8"}, "ru_RU"},
		{"C and POSIX skipped", map[string]string{"LANGUAGE": "C", "LC_ALL": "POSIX", "LC_MESSAGES": "fr_FR.UTF-8"}, "fr_FR"},
		{"modifier stripped", map[string]string{"LANG": "sr_RS@latin"}, "sr_RS"},
		{"fallback", nil, "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearLocaleEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if got := detectLanguage(); got != tt.want {
				t.Fatalf("detectLanguage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFallbackWhenUninitialized(t *testing.T) {
	mu.Lock()
	old := po
	po = nil
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		po = old
		mu.Unlock()
	})

	if got := T("Hello"); got != "Hello" {
		t.Fatalf("T fallback = %q, want %q", got, "Hello")
	}
	if got := N("file", "files", 1); got != "file" {
		t.Fatalf("N singular fallback = %q, want %q", got, "file")
	}
	if got := N("file", "files", 2); got != "files" {
		t.Fatalf("N plural fallback = %q, want %q", got, "files")
	}
}

func TestEmbeddedRussianCatalog(t *testing.T) {
	Init("ru_RU")
	t.Cleanup(func() { Init("en") })

	if Lang() != "ru_RU" {
		t.Fatalf("Lang() = %q, want ru_RU", Lang())
	}
	if got := T("Missing keys"); got != "Отсутствующие ключи" {
		t.Fatalf("T(Missing keys) = %q", got)
	}
	if got := N("Created %d file", "Created %d files", 5); got != "Создано %d файлов" {
		t.Fatalf("N(5) = %q", got)
	}
	if got := N("Created %d file", "Created %d files", 2); got != "Создано %d файла" {
		t.Fatalf("N(2) = %q", got)
	}
	if got := T("not in the catalog"); got != "not in the catalog" {
		t.Fatalf("T(unknown) = %q", got)
	}
}
