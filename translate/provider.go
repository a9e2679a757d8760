package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderOpenAI       = "openai"
	ProviderOpenRouter   = "openrouter"
	ProviderGroq         = "groq"
	ProviderOllama       = "ollama"
	ProviderCustomOpenAI = "custom-openai"
	ProviderClaude       = "claude"
	ProviderGemini       = "gemini"
)

// ---------------------------------------------------------------------------
// Capability
// ---------------------------------------------------------------------------

// Item is one key and its base text in a batch request.
type Item struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Langs names the language pair of a request. Empty means unknown.
type Langs struct {
	Source string
	Target string
}

// Request is a single-string translation request.
type Request struct {
	Text  string
	Langs Langs
	// PlaceholderHints are tokens the translation must keep verbatim.
	PlaceholderHints []string
}

// BatchResult is the parsed answer to a batch request. Extras lists keys
// that were returned but not requested; Duplicates lists keys returned
// more than once, where the last value wins.
type BatchResult struct {
	Translations map[string]string
	Extras       []string
	Duplicates   []string
}

// Provider translates text. Implementations must be safe for concurrent
// use.
type Provider interface {
	// Name is the provider ID, part of every cache fingerprint.
	Name() string
	// Model is the model in use, also part of the fingerprint.
	Model() string
	TranslateOne(ctx context.Context, req Request) (string, error)
	TranslateBatch(ctx context.Context, items []Item, langs Langs) (*BatchResult, error)
}

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// ProviderConfig selects and configures a provider.
type ProviderConfig struct {
	// ID is one of the Provider* constants.
	ID      string
	APIKey  string
	Model   string
	BaseURL string
	// Timeout bounds a single HTTP request. Zero means 120s.
	Timeout time.Duration
	// Proxy overrides the proxy taken from the environment.
	Proxy string
}

type apiFormat int

const (
	formatOpenAIChat apiFormat = iota // OpenAI chat/completions
	formatAnthropic                   // Anthropic messages
	formatGemini                      // Google Gemini generateContent
)

type providerDefaults struct {
	format  apiFormat
	baseURL string
	model   string
	// jsonMode asks the API for a JSON object response in batch calls.
	jsonMode  bool
	keyNeeded bool
}

var defaults = map[string]providerDefaults{
	ProviderOpenAI:       {formatOpenAIChat, "https://api.openai.com/v1", "gpt-4o-mini", true, true},
	ProviderOpenRouter:   {formatOpenAIChat, "https://openrouter.ai/api/v1", "openai/gpt-4o-mini", true, true},
	ProviderGroq:         {formatOpenAIChat, "https://api.groq.com/openai/v1", "llama-3.3-70b-versatile", true, true},
	ProviderOllama:       {formatOpenAIChat, "http://localhost:11434/v1", "llama3.1", false, false},
	ProviderCustomOpenAI: {formatOpenAIChat, "", "", false, false},
	ProviderClaude:       {formatAnthropic, "https://api.anthropic.com/v1", "claude-3-5-haiku-latest", false, true},
	ProviderGemini:       {formatGemini, "https://generativelanguage.googleapis.com", "gemini-1.5-flash", false, true},
}

// ProviderIDs lists the supported provider IDs.
func ProviderIDs() []string {
	return []string{
		ProviderOpenAI, ProviderOpenRouter, ProviderGroq, ProviderOllama,
		ProviderCustomOpenAI, ProviderClaude, ProviderGemini,
	}
}

// NeedsAPIKey reports whether the provider refuses requests without a key.
func NeedsAPIKey(id string) bool {
	return defaults[id].keyNeeded
}

// NewProvider builds the HTTP provider for cfg, filling in the default
// base URL and model of the provider.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	d, ok := defaults[cfg.ID]
	if !ok {
		return nil, fmt.Errorf("unsupported provider %q (supported: %s)", cfg.ID, strings.Join(ProviderIDs(), ", "))
	}
	p := &httpProvider{
		id:       cfg.ID,
		format:   d.format,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		jsonMode: d.jsonMode,
	}
	if p.baseURL == "" {
		p.baseURL = d.baseURL
	}
	if p.model == "" {
		p.model = d.model
	}
	if p.baseURL == "" {
		return nil, fmt.Errorf("provider %s requires a base URL", cfg.ID)
	}
	if p.model == "" {
		return nil, fmt.Errorf("provider %s requires a model", cfg.ID)
	}
	if d.keyNeeded && p.apiKey == "" {
		return nil, fmt.Errorf("provider %s requires an API key", cfg.ID)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	p.client = makeHTTPClient(cfg.Proxy, timeout)
	return p, nil
}

// ---------------------------------------------------------------------------
// HTTP provider
// ---------------------------------------------------------------------------

type httpProvider struct {
	id       string
	format   apiFormat
	baseURL  string
	apiKey   string
	model    string
	jsonMode bool
	client   *http.Client
}

func (p *httpProvider) Name() string  { return p.id }
func (p *httpProvider) Model() string { return p.model }

func (p *httpProvider) TranslateOne(ctx context.Context, req Request) (string, error) {
	text, err := p.call(ctx, singleSystemPrompt(req), singleUserPrompt(req), false)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(stripCodeFence(text))
	if text == "" {
		return "", &ProviderError{Provider: p.id, Err: fmt.Errorf("empty translation: %w", ErrResponseInvalid)}
	}
	return text, nil
}

func (p *httpProvider) TranslateBatch(ctx context.Context, items []Item, langs Langs) (*BatchResult, error) {
	payload, err := json.Marshal(struct {
		Items []Item `json:"items"`
	}{items})
	if err != nil {
		return nil, fmt.Errorf("encoding batch: %w", err)
	}
	text, err := p.call(ctx, batchSystemPrompt(langs), string(payload), p.jsonMode)
	if err != nil {
		return nil, err
	}
	res, err := parseBatch(text, items)
	if err != nil {
		return nil, &ProviderError{Provider: p.id, Err: err}
	}
	return res, nil
}

// call sends one request and returns the model's text. Failures come back
// as *ProviderError, classified for retry.
func (p *httpProvider) call(ctx context.Context, systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	endpoint, headers, body, err := p.buildRequest(systemPrompt, userPrompt, jsonMode)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &ProviderError{Provider: p.id, Transient: IsTransient(err), Err: err}
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	resp.Body.Close()
	if err != nil {
		return "", &ProviderError{Provider: p.id, Status: resp.StatusCode, Transient: IsTransient(err), Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &ProviderError{Provider: p.id, Status: resp.StatusCode, Transient: true,
			Err: fmt.Errorf("%w: %s", ErrRateLimited, truncate(string(respBody), 300))}
	}
	if resp.StatusCode/100 != 2 {
		return "", &ProviderError{Provider: p.id, Status: resp.StatusCode, Transient: transientStatus(resp.StatusCode),
			Err: errors.New(truncate(strings.TrimSpace(string(respBody)), 500))}
	}

	text, err := extractResponseText(respBody)
	if err != nil {
		return "", &ProviderError{Provider: p.id, Status: resp.StatusCode, Err: err}
	}
	return text, nil
}

// buildRequest constructs the endpoint, headers, and body for one call.
func (p *httpProvider) buildRequest(systemPrompt, userPrompt string, jsonMode bool) (string, map[string]string, []byte, error) {
	headers := map[string]string{
		"Content-Type": "application/json",
	}

	var endpoint string
	var body []byte
	var err error

	switch p.format {
	case formatGemini:
		endpoint = fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.baseURL, url.PathEscape(p.model))
		if p.apiKey != "" {
			headers["x-goog-api-key"] = p.apiKey
		}
		body, err = buildGeminiRequest(systemPrompt, userPrompt, 0.2)

	case formatAnthropic:
		endpoint = p.baseURL + "/messages"
		if p.apiKey != "" {
			headers["x-api-key"] = p.apiKey
		}
		headers["anthropic-version"] = "2023-06-01"
		body, err = buildAnthropicRequest(p.model, systemPrompt, userPrompt, 0.2)

	default:
		endpoint = p.baseURL
		if !strings.HasSuffix(endpoint, "/chat/completions") {
			endpoint += "/chat/completions"
		}
		if p.apiKey != "" {
			headers["Authorization"] = "Bearer " + p.apiKey
		}
		body, err = buildOpenAIChatRequest(p.model, systemPrompt, userPrompt, 0.2, jsonMode)
	}

	if err != nil {
		return "", nil, nil, err
	}
	return endpoint, headers, body, nil
}

// makeHTTPClient returns a client honoring proxyURL, or the HTTP_PROXY
// family of environment variables when it is empty.
func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyFromEnvironment
	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// Request builders
// ---------------------------------------------------------------------------

func buildOpenAIChatRequest(model, systemPrompt, userPrompt string, temperature float64, jsonMode bool) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type responseFormat struct {
		Type string `json:"type"`
	}
	req := struct {
		Model          string          `json:"model"`
		Messages       []msg           `json:"messages"`
		Temperature    float64         `json:"temperature"`
		ResponseFormat *responseFormat `json:"response_format,omitempty"`
		Stream         bool            `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	if jsonMode {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return json.Marshal(req)
}

func buildGeminiRequest(systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	type genConfig struct {
		Temperature float64 `json:"temperature"`
	}
	req := struct {
		Contents          []content `json:"contents"`
		GenerationConfig  genConfig `json:"generationConfig"`
		SystemInstruction *content  `json:"systemInstruction,omitempty"`
	}{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: userPrompt}}},
		},
		GenerationConfig: genConfig{Temperature: temperature},
	}
	if systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	return json.Marshal(req)
}

func buildAnthropicRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		System      string  `json:"system,omitempty"`
		Messages    []msg   `json:"messages"`
	}{
		Model:       model,
		MaxTokens:   8192,
		Temperature: temperature,
		System:      systemPrompt,
		Messages: []msg{
			{Role: "user", Content: userPrompt},
		},
	}
	return json.Marshal(req)
}

// ---------------------------------------------------------------------------
// Response parsing
// ---------------------------------------------------------------------------

// extractResponseText pulls the generated text out of an OpenAI chat,
// Gemini, or Anthropic response body.
func extractResponseText(body []byte) (string, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid JSON response: %v: %w", err, ErrResponseInvalid)
	}

	if errObj, ok := raw["error"]; ok {
		if errMap, ok := errObj.(map[string]any); ok {
			if msg, ok := errMap["message"].(string); ok {
				return "", fmt.Errorf("API error: %s", msg)
			}
		}
		return "", fmt.Errorf("API error: %v", errObj)
	}

	// OpenAI chat: choices[0].message.content
	if choices, ok := raw["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				if content, ok := message["content"].(string); ok {
					return content, nil
				}
			}
		}
	}

	// Gemini: candidates[0].content.parts[].text
	if candidates, ok := raw["candidates"].([]any); ok && len(candidates) > 0 {
		if candidate, ok := candidates[0].(map[string]any); ok {
			if content, ok := candidate["content"].(map[string]any); ok {
				if parts, ok := content["parts"].([]any); ok {
					var b strings.Builder
					for _, p := range parts {
						if part, ok := p.(map[string]any); ok {
							if text, ok := part["text"].(string); ok {
								b.WriteString(text)
							}
						}
					}
					if b.Len() > 0 {
						return b.String(), nil
					}
				}
			}
		}
	}

	// Anthropic: content[].type=="text" -> .text
	if contentArr, ok := raw["content"].([]any); ok {
		for _, c := range contentArr {
			if block, ok := c.(map[string]any); ok && block["type"] == "text" {
				if text, ok := block["text"].(string); ok {
					return text, nil
				}
			}
		}
	}

	return "", fmt.Errorf("could not extract text from response: %s: %w", truncate(string(body), 300), ErrResponseInvalid)
}

var markdownCodeBlock = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*\n(.*?)\\s*```\\s*$")

// stripCodeFence removes a markdown code fence wrapped around the whole
// response.
func stripCodeFence(s string) string {
	if m := markdownCodeBlock.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// parseBatch reads a batch answer: {"items":[{key,text}...]} or a bare
// array of the same objects, optionally inside a code fence. Entries
// without a string key and text are ignored.
func parseBatch(content string, requested []Item) (*BatchResult, error) {
	content = strings.TrimSpace(stripCodeFence(content))

	var entries []json.RawMessage
	if strings.HasPrefix(content, "[") {
		if err := json.Unmarshal([]byte(content), &entries); err != nil {
			return nil, fmt.Errorf("parsing batch output: %v: %w", err, ErrResponseInvalid)
		}
	} else {
		var wrapped struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
			return nil, fmt.Errorf("parsing batch output: %v: %w", err, ErrResponseInvalid)
		}
		if wrapped.Items == nil {
			return nil, fmt.Errorf("batch output missing items array: %w", ErrResponseInvalid)
		}
		entries = wrapped.Items
	}

	want := make(map[string]bool, len(requested))
	for _, it := range requested {
		want[it.Key] = true
	}

	res := &BatchResult{Translations: make(map[string]string, len(requested))}
	seen := make(map[string]bool, len(entries))
	for _, raw := range entries {
		var e struct {
			Key  *string `json:"key"`
			Text *string `json:"text"`
		}
		if json.Unmarshal(raw, &e) != nil || e.Key == nil || e.Text == nil {
			continue
		}
		k := *e.Key
		dup := seen[k]
		if dup {
			res.Duplicates = append(res.Duplicates, k)
		}
		seen[k] = true
		if !want[k] {
			if !dup {
				res.Extras = append(res.Extras, k)
			}
			continue
		}
		res.Translations[k] = *e.Text
	}
	return res, nil
}

// truncate shortens s to maxLen bytes for error messages.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
