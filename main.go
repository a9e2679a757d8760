// locsync keeps locale files in sync with a base locale: check for drift,
// fix structure, and fill gaps with AI translation.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/minios-linux/locsync/cache"
	"github.com/minios-linux/locsync/check"
	"github.com/minios-linux/locsync/config"
	"github.com/minios-linux/locsync/fix"
	"github.com/minios-linux/locsync/i18n"
	"github.com/minios-linux/locsync/keyspace"
	"github.com/minios-linux/locsync/localefile"
	"github.com/minios-linux/locsync/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK          = 0
	exitIssues      = 1
	exitParseError  = 2
	exitTranslation = 3
)

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

var logger = zerolog.Nop()

func setupLogging(w io.Writer, debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
		NoColor:    os.Getenv("NO_COLOR") != "",
	}).Level(level).With().Timestamp().Logger()
}

func logInfo(format string, args ...any) {
	logger.Info().Msg(fmt.Sprintf(i18n.T(format), args...))
}

func logSuccess(format string, args ...any) {
	logger.Info().Bool("ok", true).Msg(fmt.Sprintf(i18n.T(format), args...))
}

func logWarning(format string, args ...any) {
	logger.Warn().Msg(fmt.Sprintf(i18n.T(format), args...))
}

func logError(format string, args ...any) {
	logger.Error().Msg(fmt.Sprintf(i18n.T(format), args...))
}

// exitError carries a process exit code out of a command. A nil err means
// the command already reported what went wrong.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int) error {
	if code == exitOK {
		return nil
	}
	return &exitError{code: code}
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configPath string
	uiLang     string
	debug      bool
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "locsync",
		Short: "Keep locale files in sync with a base locale",
		Long: `locsync keeps locale files in sync with a base locale.

Supports JSON, YAML and JS/TS module locale files, nested or flat keys,
and brace, mustache, printf and keyed-percent placeholders.

Commands:
  check       Report missing, extra, empty, untranslated and broken strings
  fix         Add missing keys and drop extra ones
  translate   Fill gaps with an AI provider
  new         Create locale files for new languages
  init        Write a starter .locsync.yaml

AI Providers:
  openai         OpenAI API key
  openrouter     OpenRouter API key
  groq           Groq API key
  ollama         Ollama local server
  custom-openai  Custom OpenAI-compatible endpoint
  claude         Anthropic API key
  gemini         Google AI (Gemini) API key`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			i18n.Init(uiLang)
			setupLogging(os.Stderr, debug)
		},
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: .locsync.yaml in --root)")
	root.PersistentFlags().StringVar(&uiLang, "ui-lang", "", "Language of locsync's own messages (default: from LANGUAGE/LANG)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newCheckCmd(),
		newFixCmd(),
		newTranslateCmd(),
		newNewCmd(),
		newInitCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	setupLogging(os.Stderr, false)
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.err != nil {
				logError("%v", ee.err)
			}
			os.Exit(ee.code)
		}
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "locsync version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Shared config flags
// ---------------------------------------------------------------------------

// configFlags are the overrides accepted by check, fix, translate and new.
type configFlags struct {
	base             string
	targets          string
	keyStyle         string
	placeholderStyle string
	ignoreKeys       string
	treatSame        bool
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.base, "base", "", "Base locale file (overrides config)")
	cmd.Flags().StringVar(&f.targets, "targets", "", "Target locale files or globs, comma-separated (overrides config)")
	cmd.Flags().StringVar(&f.keyStyle, "key-style", "", "Key style: auto, nested, flat")
	cmd.Flags().StringVar(&f.placeholderStyle, "placeholder-style", "", "Placeholder styles: auto, brace, mustache, printf, keyed-percent (comma-separated)")
	cmd.Flags().StringVar(&f.ignoreKeys, "ignore-keys", "", "Keys to ignore, comma-separated")
	cmd.Flags().BoolVar(&f.treatSame, "treat-same-as-untranslated", true, "Report target strings equal to the base as untranslated")

	_ = cmd.RegisterFlagCompletionFunc("key-style", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "nested", "flat"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("placeholder-style", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "brace", "mustache", "printf", "keyed-percent"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func (f *configFlags) overrides(cmd *cobra.Command) config.Overrides {
	o := config.Overrides{
		Base:             f.base,
		Targets:          splitList(f.targets),
		KeyStyle:         f.keyStyle,
		PlaceholderStyle: f.placeholderStyle,
		IgnoreKeys:       splitList(f.ignoreKeys),
	}
	if cmd.Flags().Changed("treat-same-as-untranslated") {
		v := f.treatSame
		o.TreatSame = &v
	}
	return o
}

// loadConfig reads the config file and applies flag overrides. Without a
// config file, --base and --targets are enough.
func loadConfig(cmd *cobra.Command, f *configFlags) (*config.Config, error) {
	o := f.overrides(cmd)

	path := configPath
	if path == "" {
		found, err := config.Find(rootDir)
		if err != nil {
			if errors.Is(err, config.ErrNotFound) && o.Base != "" && len(o.Targets) > 0 {
				c := &config.Config{Dir: rootDir, KeyStyle: string(keyspace.StyleAuto)}
				if err := c.Apply(o); err != nil {
					return nil, err
				}
				return c, nil
			}
			return nil, fmt.Errorf("%w\nRun 'locsync init' or pass --base and --targets", err)
		}
		path = found
	}

	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.Apply(o); err != nil {
		return nil, err
	}
	logger.Debug().Str("config", path).Str("base", c.Base).Strs("targets", c.Targets).Msg("Loaded config")
	return c, nil
}

func checkOptions(c *config.Config, failFast bool) check.Options {
	return check.Options{
		KeyStyle:                keyspace.Style(c.KeyStyle),
		PlaceholderStyles:       c.Styles(),
		IgnoreKeys:              c.IgnoreKeys,
		TreatSameAsUntranslated: c.TreatSame(),
		FailFast:                failFast,
	}
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// check
// ---------------------------------------------------------------------------

// maxListedIssues bounds the text report.
const maxListedIssues = 30

func newCheckCmd() *cobra.Command {
	var (
		cf       configFlags
		asJSON   bool
		failFast bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check target locales against the base",
		Long: `Compare every target locale with the base locale and report
missing keys, extra keys, empty values, untranslated strings, placeholder
mismatches and files that cannot be parsed. Does not modify any files.

Exit status: 0 when clean, 1 when issues were found, 2 on parse errors.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd, &cf)
			if err != nil {
				return err
			}
			report, err := check.Run(c.Base, c.Targets, checkOptions(c, failFast))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			} else {
				printReport(out, report, maxListedIssues)
			}
			return exitWith(reportExitCode(report))
		},
	}

	cf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first file that cannot be parsed")

	return cmd
}

func reportExitCode(r *check.Report) int {
	switch {
	case r.HasParseErrors():
		return exitParseError
	case r.Summary.Total() > 0:
		return exitIssues
	}
	return exitOK
}

// printReport writes the summary table and the first limit issues.
func printReport(w io.Writer, r *check.Report, limit int) {
	s := r.Summary
	fmt.Fprintf(w, "%s %s\n", i18n.T("Base:"), r.Base)
	fmt.Fprintf(w, "%s %d\n", i18n.T("Targets:"), len(r.Targets))
	fmt.Fprintln(w, strings.Repeat("─", 40))
	rows := []struct {
		label string
		n     int
	}{
		{i18n.T("Missing keys"), s.MissingKeys},
		{i18n.T("Extra keys"), s.ExtraKeys},
		{i18n.T("Empty values"), s.EmptyValues},
		{i18n.T("Untranslated"), s.Untranslated},
		{i18n.T("Placeholder mismatches"), s.PlaceholderMismatches},
		{i18n.T("Parse errors"), s.ParseErrors},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%-26s %d\n", row.label, row.n)
	}
	fmt.Fprintln(w, strings.Repeat("─", 40))

	if len(r.Issues) == 0 {
		fmt.Fprintln(w, i18n.T("No issues found."))
		return
	}
	for i, is := range r.Issues {
		if i == limit {
			rest := len(r.Issues) - limit
			fmt.Fprintf(w, i18n.N("... and %d more issue (use --json for the full list)", "... and %d more issues (use --json for the full list)", rest)+"\n", rest)
			break
		}
		loc := is.File
		if is.Key != "" {
			loc += " " + is.Key
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", is.Kind, loc, is.Message)
	}
}

// ---------------------------------------------------------------------------
// fix
// ---------------------------------------------------------------------------

func newFixCmd() *cobra.Command {
	var (
		cf        configFlags
		inPlace   bool
		outDir    string
		dropExtra bool
		fillBase  bool
	)

	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Add missing keys and drop extra ones",
		Long: `Repair target locales so they have the same keys as the base.

Missing keys are added as empty strings (or base values with
--fill-missing-with-base). Extra keys are kept unless --drop-extra-keys
is given. Targets that do not exist yet are created.

By default the repaired files are written under --out-dir, keeping their
relative layout; --in-place overwrites the targets.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd, &cf)
			if err != nil {
				return err
			}
			res, err := fix.Run(c.Base, c.Targets, fix.Options{
				Check:   checkOptions(c, false),
				Policy:  fix.Policy{DropExtraKeys: dropExtra, FillFromBase: fillBase},
				InPlace: inPlace,
				OutDir:  outDir,
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), res.Summary())
			code := fixExitCode(res)
			if code == exitOK {
				logSuccess(i18n.N("Fixed %d file", "Fixed %d files", len(res.Files)), len(res.Files))
			}
			return exitWith(code)
		},
	}

	cf.register(cmd)
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "Overwrite target files")
	cmd.Flags().StringVar(&outDir, "out-dir", fix.DefaultOutDir, "Output directory when not writing in place")
	cmd.Flags().BoolVar(&dropExtra, "drop-extra-keys", false, "Remove keys that are not in the base")
	cmd.Flags().BoolVar(&fillBase, "fill-missing-with-base", false, "Fill missing keys with the base value instead of an empty string")
	cmd.MarkFlagsMutuallyExclusive("in-place", "out-dir")

	return cmd
}

// fixExitCode is 2 when the base or any target could not be processed.
func fixExitCode(res *fix.Result) int {
	if res.Report != nil && res.Report.HasParseErrors() {
		return exitParseError
	}
	for _, f := range res.Files {
		if f.Err != nil {
			return exitParseError
		}
	}
	return exitOK
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

type translateArgs struct {
	mode                   string
	provider, model        string
	apiKey, baseURL, proxy string
	sourceLang, targetLang string
	maxItems, batchSize    int
	concurrency, retries   int
	delay, timeout         time.Duration
	noCache                bool
	inPlace                bool
	outDir                 string
	verbose, failFast      bool
}

func newTranslateCmd() *cobra.Command {
	var (
		cf configFlags
		a  translateArgs
	)

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate missing and stale strings using AI",
		Long: `Translate target strings with an AI provider.

Which strings are sent is chosen by --mode: missing keys, empty values,
values equal to the base, or all of them (default). Strings are sent in
batches, several batches at a time; results are validated against the
base placeholders, tags and markdown, and cached in .locsync-cache/.

The provider comes from the translate section of the config or from
--provider. API keys are read from the config, the variable named by
apiKeyEnv, LOCSYNC_API_KEY, or the provider's usual variable (also from
a .env file in the project root).

Examples:
  # Translate everything that needs it into ./translated
  locsync translate --provider openai

  # Only fill missing keys, in place
  locsync translate --mode missing --in-place

  # Local model through Ollama
  locsync translate --provider ollama --model qwen2.5

Exit status: 0 on success, 2 on parse errors, 3 when strings could not
be translated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd, &cf)
			if err != nil {
				return err
			}
			return runTranslate(cmd, c, a)
		},
	}

	cf.register(cmd)
	f := cmd.Flags()
	f.StringVar(&a.mode, "mode", "all", "What to translate: missing, empty, untranslated, all")

	f.StringVar(&a.provider, "provider", "", "AI provider: "+strings.Join(translate.ProviderIDs(), ", "))
	f.StringVar(&a.model, "model", "", "Model name (default depends on the provider)")
	f.StringVar(&a.apiKey, "api-key", "", "API key (or LOCSYNC_API_KEY env var)")
	f.StringVar(&a.baseURL, "base-url", "", "Custom API base URL")
	f.StringVar(&a.sourceLang, "source-lang", "", "Source language (default: from the base file name)")
	f.StringVar(&a.targetLang, "target-lang", "", "Target language (default: from each target file name)")

	f.IntVar(&a.maxItems, "max-items", 0, "Maximum strings per file (0 = no limit)")
	f.IntVar(&a.batchSize, "batch-size", 0, "Strings per request (default 25)")
	f.IntVar(&a.concurrency, "concurrency", 0, "Requests in flight (default 3)")
	f.IntVar(&a.retries, "max-retries", -1, "Retries on transient errors (default 3)")
	f.DurationVar(&a.delay, "request-delay", 0, "Delay after each batch")
	f.DurationVar(&a.timeout, "timeout", 0, "Request timeout (default 120s)")
	f.StringVar(&a.proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	f.BoolVar(&a.noCache, "no-cache", false, "Do not read or write the translation cache")

	f.BoolVar(&a.inPlace, "in-place", false, "Overwrite target files")
	f.StringVar(&a.outDir, "out-dir", translate.DefaultOutDir, "Output directory when not writing in place")
	f.BoolVar(&a.verbose, "verbose", false, "Log base and translated text for every key")
	f.BoolVar(&a.failFast, "fail-fast", false, "Stop at the first string that cannot be translated")
	cmd.MarkFlagsMutuallyExclusive("in-place", "out-dir")

	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return translate.ProviderIDs(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("mode", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"missing", "empty", "untranslated", "all"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// translateSection merges the config's translate section with flags.
func translateSection(c *config.Config, a translateArgs) (*config.Translate, error) {
	var t config.Translate
	if c.Translate != nil {
		t = *c.Translate
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&t.Provider, a.provider)
	set(&t.Model, a.model)
	set(&t.APIKey, a.apiKey)
	set(&t.BaseURL, a.baseURL)
	set(&t.Proxy, a.proxy)
	set(&t.SourceLang, a.sourceLang)
	set(&t.TargetLang, a.targetLang)
	if a.maxItems > 0 {
		t.MaxItems = a.maxItems
	}
	if a.batchSize > 0 {
		t.BatchSize = a.batchSize
	}
	if a.concurrency > 0 {
		t.Concurrency = a.concurrency
	}
	if a.retries >= 0 {
		r := a.retries
		t.RetryCount = &r
	}
	if a.delay > 0 {
		t.DelayMs = int(a.delay / time.Millisecond)
	}
	if a.timeout > 0 {
		t.TimeoutSec = int((a.timeout + time.Second - 1) / time.Second)
	}
	if a.noCache {
		off := false
		t.Cache = &off
	}

	if t.Provider == "" {
		return nil, fmt.Errorf("no provider configured: add a translate section to the config or pass --provider (%s)",
			strings.Join(translate.ProviderIDs(), ", "))
	}
	if err := t.ApplyDefaults(); err != nil {
		return nil, err
	}
	return &t, nil
}

func runTranslate(cmd *cobra.Command, c *config.Config, a translateArgs) error {
	mode, err := translate.ParseMode(a.mode)
	if err != nil {
		return err
	}
	t, err := translateSection(c, a)
	if err != nil {
		return err
	}

	env, err := config.LoadEnv(rootDir)
	if err != nil {
		logWarning("Ignoring .env: %v", err)
	}
	key, from := config.ResolveAPIKey(t, env)
	if key == "" && translate.NeedsAPIKey(t.Provider) {
		return config.MissingKeyError(t)
	}
	if from != "" {
		logger.Debug().Str("from", from).Msg("Using API key")
	}

	prov, err := translate.NewProvider(translate.ProviderConfig{
		ID:      t.Provider,
		APIKey:  key,
		Model:   t.Model,
		BaseURL: t.BaseURL,
		Timeout: time.Duration(t.TimeoutSec) * time.Second,
		Proxy:   t.Proxy,
	})
	if err != nil {
		return err
	}

	var tc *cache.Cache
	if t.CacheEnabled() {
		tc = cache.Open(c.Dir)
		if err := tc.Load(); err != nil {
			logWarning("Translation cache unavailable: %v", err)
		}
	}

	// Setup signal handling for graceful cancellation
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logWarning("Interrupted, finishing requests in flight...")
			cancel()
		case <-ctx.Done():
		}
	}()

	logInfo("Translating with %s (%s)", prov.Name(), prov.Model())
	sum, err := translate.Run(ctx, c.Base, c.Targets, translate.Options{
		Check:       checkOptions(c, false),
		Mode:        mode,
		Provider:    prov,
		Cache:       tc,
		SourceLang:  t.SourceLang,
		TargetLang:  t.TargetLang,
		MaxItems:    t.MaxItems,
		BatchSize:   t.BatchSize,
		Concurrency: t.Concurrency,
		Retry: translate.RetryPolicy{
			Retries:   t.Retries(),
			BaseDelay: time.Duration(t.RetryBaseDelayMs) * time.Millisecond,
		},
		Delay:    time.Duration(t.DelayMs) * time.Millisecond,
		InPlace:  a.inPlace,
		OutDir:   a.outDir,
		FailFast: a.failFast,
		Verbose:  a.verbose,
		Logger:   logger,
	})
	if sum != nil {
		printTranslateSummary(cmd.OutOrStdout(), sum)
	}
	return translateExit(ctx, err)
}

func printTranslateSummary(w io.Writer, sum *translate.Summary) {
	for _, f := range sum.Files {
		switch {
		case f.Err != nil:
			fmt.Fprintf(w, "  %s: %s (%v)\n", f.Path, i18n.T("skipped"), f.Err)
		case f.Written:
			fmt.Fprintf(w, "  %s: %d/%d %s", f.OutPath, f.Translated, f.Eligible-f.Remaining, i18n.T("translated"))
			if f.Failed > 0 {
				fmt.Fprintf(w, ", %d %s", f.Failed, i18n.T("failed"))
			}
			if f.Remaining > 0 {
				fmt.Fprintf(w, ", %d %s", f.Remaining, i18n.T("left for the next run"))
			}
			fmt.Fprintln(w)
		default:
			fmt.Fprintf(w, "  %s: %s\n", f.Path, i18n.T("nothing to translate"))
		}
	}
}

// translateExit maps the outcome of translate.Run to an exit error.
func translateExit(ctx context.Context, err error) error {
	if err == nil {
		logSuccess("Translation complete!")
		return nil
	}
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		logWarning("Translation interrupted, files in progress were not written")
		return exitWith(exitIssues)
	}

	var fe *translate.FailureError
	var ie *translate.ItemError
	switch {
	case errors.As(err, &ie):
		return &exitError{code: exitTranslation, err: err}
	case errors.As(err, &fe):
		if fe.Failed > 0 {
			return &exitError{code: exitTranslation, err: err}
		}
		return &exitError{code: exitParseError, err: err}
	}
	var de *localefile.DecodeError
	if errors.As(err, &de) {
		return &exitError{code: exitParseError, err: err}
	}
	return err
}

// ---------------------------------------------------------------------------
// new
// ---------------------------------------------------------------------------

func newNewCmd() *cobra.Command {
	var (
		cf             configFlags
		langs          string
		noUpdateConfig bool
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create locale files for new languages",
		Long: `Create locale files for new languages, seeded with the base values.

File names follow the first configured target (or the base): with
locales/fr.json as a target, --langs ja,ko creates locales/ja.json and
locales/ko.json. The new files are added to the config targets unless
--no-update-config is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd, &cf)
			if err != nil {
				return err
			}
			res, err := fix.CreateTargets(c.Base, c.Targets, splitList(langs), logger)
			if err != nil {
				return err
			}
			for _, p := range res.Skipped {
				logWarning("%s already exists, skipped", p)
			}

			if noUpdateConfig || c.Path == "" {
				logSuccess(i18n.N("Created %d file", "Created %d files", len(res.Created)), len(res.Created))
				return nil
			}
			added, err := config.AppendTargets(c.Path, append(append([]string(nil), res.Created...), res.Skipped...))
			if err != nil {
				return err
			}
			for _, p := range added {
				logInfo("Added %s to %s", p, filepath.Base(c.Path))
			}
			logSuccess(i18n.N("Created %d file", "Created %d files", len(res.Created)), len(res.Created))
			return nil
		},
	}

	cf.register(cmd)
	cmd.Flags().StringVar(&langs, "langs", "", "Languages to add, comma-separated (e.g. fr,ja)")
	cmd.Flags().BoolVar(&noUpdateConfig, "no-update-config", false, "Do not add the new files to the config")
	_ = cmd.MarkFlagRequired("langs")

	return cmd
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	var (
		base    string
		targets string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .locsync.yaml",
		Long: `Write a commented .locsync.yaml into the project root.

The file lists the base locale and the targets; edit it to add a
translate section. An existing file is kept unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteStarter(rootDir, base, splitList(targets), force)
			if err != nil {
				return err
			}
			logSuccess("Created %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "locales/en.json", "Base locale file")
	cmd.Flags().StringVar(&targets, "targets", "locales/zh.json", "Target locale files or globs, comma-separated")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")

	return cmd
}
