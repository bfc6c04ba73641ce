// Command xstoryfinder fetches recent X posts for a keyword and prints an
// LLM-written analysis of them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ibeckermayer/xstoryfinder/internal/analyzer"
	"github.com/ibeckermayer/xstoryfinder/internal/analyzer/providers"
	"github.com/ibeckermayer/xstoryfinder/internal/app"
	"github.com/ibeckermayer/xstoryfinder/internal/auth"
	"github.com/ibeckermayer/xstoryfinder/internal/config"
	"github.com/ibeckermayer/xstoryfinder/internal/logging"
	"github.com/ibeckermayer/xstoryfinder/internal/processor"
	"github.com/ibeckermayer/xstoryfinder/internal/prompts"
	"github.com/ibeckermayer/xstoryfinder/internal/report"
	"github.com/ibeckermayer/xstoryfinder/internal/scheduler"
	"github.com/ibeckermayer/xstoryfinder/internal/scraper"
	"github.com/ibeckermayer/xstoryfinder/internal/twitter"
)

type flags struct {
	keyword       string
	limit         int
	provider      string
	model         string
	kind          string
	verbose       bool
	listProviders bool
	filter        bool
	dedupe        string
	source        string
	configPath    string
	every         string
	dumpDir       string

	set map[string]bool
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("xstoryfinder", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: xstoryfinder -k <keyword> [options]")
		fmt.Fprintln(fs.Output())
		fs.PrintDefaults()
	}

	fs.StringVar(&f.keyword, "keyword", "", "keyword to search for (required)")
	fs.StringVar(&f.keyword, "k", "", "shorthand for -keyword")
	fs.IntVar(&f.limit, "limit", 50, "number of posts to fetch")
	fs.IntVar(&f.limit, "l", 50, "shorthand for -limit")
	fs.StringVar(&f.provider, "provider", "", "AI provider: "+providerList())
	fs.StringVar(&f.provider, "p", "", "shorthand for -provider")
	fs.StringVar(&f.model, "model", "", "model name (provider default when empty)")
	fs.StringVar(&f.model, "m", "", "shorthand for -model")
	fs.StringVar(&f.kind, "type", "", "analysis type: "+kindList())
	fs.StringVar(&f.kind, "t", "", "shorthand for -type")
	fs.BoolVar(&f.verbose, "verbose", false, "show debug output and full error chains")
	fs.BoolVar(&f.verbose, "v", false, "shorthand for -verbose")
	fs.BoolVar(&f.listProviders, "list-providers", false, "list available AI providers and exit")
	fs.BoolVar(&f.filter, "filter", false, "drop off-topic posts with the AI provider before analysis")
	fs.StringVar(&f.dedupe, "dedupe", "", "duplicate key: id or text")
	fs.StringVar(&f.source, "source", "", "post source: api or browser")
	fs.StringVar(&f.configPath, "config", "", "config file path")
	fs.StringVar(&f.every, "every", "", "re-run on a cron schedule, e.g. \"@every 1h\"")
	fs.StringVar(&f.dumpDir, "dump-dir", "", "write every AI prompt and response to this directory")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

func (f *flags) isSet(names ...string) bool {
	for _, n := range names {
		if f.set[n] {
			return true
		}
	}
	return false
}

// apply layers explicit flags over the loaded config
func (f *flags) apply(cfg *config.Config) {
	if f.isSet("limit", "l") {
		cfg.Search.Limit = f.limit
	}
	if f.provider != "" {
		cfg.Analysis.Provider = f.provider
	}
	if f.model != "" {
		cfg.Analysis.Model = f.model
	}
	if f.kind != "" {
		cfg.Analysis.Type = f.kind
	}
	if f.filter {
		cfg.Analysis.Filter = true
	}
	if f.dedupe != "" {
		cfg.Search.Dedupe = f.dedupe
	}
	if f.source != "" {
		cfg.Search.Source = f.source
	}
	if f.dumpDir != "" {
		cfg.Debug.DumpDir = f.dumpDir
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	f, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	logging.Init(f.verbose)

	if f.listProviders {
		printProviders()
		return 0
	}

	if strings.TrimSpace(f.keyword) == "" {
		fmt.Fprintln(os.Stderr, "Error: a keyword is required (use -k <keyword>)")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, opts, err := setup(f)
	if err != nil {
		printError(err, f.verbose)
		return 1
	}

	printer := report.New(os.Stdout, isTerminal(os.Stdout))
	job := func(ctx context.Context) error {
		res, err := runner.Run(ctx, opts)
		if err != nil {
			return err
		}
		return printer.Print(res)
	}

	if f.every != "" {
		s, err := scheduler.New("")
		if err != nil {
			printError(err, f.verbose)
			return 1
		}
		if err := s.Watch(ctx, f.every, job); err != nil {
			printError(err, f.verbose)
			return 1
		}
		return 0
	}

	if err := job(ctx); err != nil {
		printError(err, f.verbose)
		return 1
	}
	return 0
}

// setup resolves config and builds the pipeline. Every configuration error
// surfaces here, before any network call.
func setup(f *flags) (*app.App, app.RunOptions, error) {
	var opts app.RunOptions

	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return nil, opts, err
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, opts, err
	}

	kind, err := prompts.ParseKind(cfg.Analysis.Type)
	if err != nil {
		return nil, opts, err
	}
	dedupe, err := processor.ParseKey(cfg.Search.Dedupe)
	if err != nil {
		return nil, opts, err
	}

	id, err := cfg.ProviderID()
	if err != nil {
		return nil, opts, err
	}
	pm := prompts.Open(cfg.Prompts.Dir, cfg.Prompts.Config)
	provider, err := providers.New(cfg.ProviderConfig(id), pm)
	if err != nil {
		return nil, opts, err
	}

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, opts, err
	}

	opts = app.RunOptions{
		Keyword: strings.TrimSpace(f.keyword),
		Limit:   cfg.Search.Limit,
		Kind:    kind,
		Filter:  cfg.Analysis.Filter,
		Dedupe:  dedupe,
		Verbose: f.verbose,
	}
	logging.Debug("Configured run", "provider", id, "model", cfg.Analysis.Model, "type", kind, "source", cfg.Search.Source)
	return app.New(fetcher, analyzer.New(provider), cfg.Analysis.Model), opts, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func newFetcher(cfg *config.Config) (app.Fetcher, error) {
	if cfg.Search.Source == config.SourceBrowser {
		store, err := auth.DefaultCookieStore()
		if err != nil {
			return nil, err
		}
		manager := auth.NewManager(store)
		if err := manager.Status(); err != nil {
			return nil, fmt.Errorf("%w (run `xsf login` first)", err)
		}
		return scraper.New(manager, cfg.Browser.Headless, cfg.Browser.MaxScrolls), nil
	}

	var opts []twitter.Option
	if cfg.Search.BaseURL != "" {
		opts = append(opts, twitter.WithBaseURL(cfg.Search.BaseURL))
	}
	return twitter.New(cfg.Search.BearerToken, opts...)
}

func printProviders() {
	fmt.Println("Available AI providers:")
	fmt.Println()
	for _, info := range providers.Catalog() {
		fmt.Printf("  %s (%s)\n", info.ID, info.Name)
		fmt.Printf("    %s\n", info.Description)
		fmt.Printf("    Default model: %s\n", info.DefaultModel)
		fmt.Printf("    API key: %s\n", info.EnvKey)
		fmt.Println()
	}
}

// printError reports err on stderr. Verbose mode walks the whole chain.
func printError(err error, verbose bool) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if !verbose {
		return
	}
	for i, e := range chain(err) {
		fmt.Fprintf(os.Stderr, "  %d: %T: %v\n", i, e, e)
	}
}

func chain(err error) []error {
	var out []error
	queue := []error{err}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if e == nil {
			continue
		}
		out = append(out, e)
		switch u := e.(type) {
		case interface{ Unwrap() error }:
			queue = append(queue, u.Unwrap())
		case interface{ Unwrap() []error }:
			queue = append(queue, u.Unwrap()...)
		}
	}
	return out
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func providerList() string {
	ids := make([]string, 0, len(providers.Supported()))
	for _, id := range providers.Supported() {
		ids = append(ids, string(id))
	}
	return strings.Join(ids, ", ")
}

func kindList() string {
	kinds := make([]string, 0, len(prompts.AnalysisKinds()))
	for _, k := range prompts.AnalysisKinds() {
		kinds = append(kinds, string(k))
	}
	return strings.Join(kinds, ", ")
}
