package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvAPIKey is checked for every provider after apiKeyEnv.
const EnvAPIKey = "LOCSYNC_API_KEY"

// providerEnv maps provider ids to their conventional key variables.
var providerEnv = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"groq":       "GROQ_API_KEY",
	"claude":     "ANTHROPIC_API_KEY",
	"gemini":     "GEMINI_API_KEY",
}

// ProviderEnv returns the conventional API key variable of a provider, or
// "" when it has none.
func ProviderEnv(provider string) string {
	return providerEnv[provider]
}

// Env looks variables up in the process environment first, then in the
// values read from a .env file. The process environment is never changed.
type Env struct {
	dotenv map[string]string
}

// LoadEnv reads dir/.env when present. A missing file is not an error.
func LoadEnv(dir string) (*Env, error) {
	path := filepath.Join(dir, ".env")
	vals, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Env{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &Env{dotenv: vals}, nil
}

// Get returns the value of name, or "".
func (e *Env) Get(name string) string {
	if name == "" {
		return ""
	}
	if v := os.Getenv(name); v != "" {
		return v
	}
	if e == nil {
		return ""
	}
	return e.dotenv[name]
}

// ResolveAPIKey finds the API key for t. The lookup order is the apiKey
// field, the variable named by apiKeyEnv, LOCSYNC_API_KEY, then the
// provider's conventional variable. from names where the key came from;
// both results are empty when nothing was found.
func ResolveAPIKey(t *Translate, env *Env) (key, from string) {
	if t == nil {
		return "", ""
	}
	if t.APIKey != "" {
		return t.APIKey, "config"
	}
	for _, name := range []string{t.APIKeyEnv, EnvAPIKey, ProviderEnv(t.Provider)} {
		if v := env.Get(name); v != "" {
			return v, name
		}
	}
	return "", ""
}

// MissingKeyError explains how to provide a key for t.
func MissingKeyError(t *Translate) error {
	hint := ProviderEnv(t.Provider)
	if t.APIKeyEnv != "" {
		hint = t.APIKeyEnv
	}
	if hint == "" {
		hint = EnvAPIKey
	}
	return fmt.Errorf("missing API key for provider %s: set translate.apiKeyEnv in the config or export %s", t.Provider, hint)
}
