// Command xsf is a maintenance CLI for xstoryfinder: browser session
// management, config shortcuts, and debug dump inspection.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chromedp/chromedp"
	"github.com/pkg/browser"

	"github.com/ibeckermayer/xstoryfinder/internal/analyzer/providers"
	"github.com/ibeckermayer/xstoryfinder/internal/auth"
	browseropts "github.com/ibeckermayer/xstoryfinder/internal/browser"
	"github.com/ibeckermayer/xstoryfinder/internal/config"
	"github.com/ibeckermayer/xstoryfinder/internal/logging"
	"github.com/ibeckermayer/xstoryfinder/internal/prompts"
	"github.com/ibeckermayer/xstoryfinder/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "login":
		err = runLogin(ctx)
	case "logout":
		err = runLogout()
	case "status":
		err = runStatus()
	case "open":
		if len(os.Args) < 3 {
			fmt.Println("Usage: xsf open <config|cache>")
			os.Exit(1)
		}
		err = runOpen(os.Args[2])
	case "providers":
		runProviders()
	case "templates":
		err = runTemplates()
	case "exchanges":
		if len(os.Args) < 3 {
			fmt.Println("Usage: xsf exchanges <dump-dir>")
			os.Exit(1)
		}
		err = runExchanges(os.Args[2])
	case "bot-test":
		err = runBotTest(ctx)
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logging.Error("Command failed", "command", os.Args[1], "err", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: xsf <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login            Sign in to X in a browser window and store the session")
	fmt.Println("  logout           Forget the stored X session")
	fmt.Println("  status           Show whether a usable X session is stored")
	fmt.Println("  open config      Open config file in default editor")
	fmt.Println("  open cache       Open cache directory in file explorer")
	fmt.Println("  providers        List AI providers and their models")
	fmt.Println("  templates        List prompt templates and provider preferences")
	fmt.Println("  exchanges <dir>  Summarize dumped AI prompts and responses")
	fmt.Println("  bot-test         Open bot.sannysoft.com to audit browser fingerprint")
}

func authManager() (*auth.Manager, error) {
	cookieStore, err := auth.DefaultCookieStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get cookie store path: %w", err)
	}
	return auth.NewManager(cookieStore), nil
}

func runLogin(ctx context.Context) error {
	m, err := authManager()
	if err != nil {
		return err
	}
	return m.Login(ctx)
}

func runLogout() error {
	m, err := authManager()
	if err != nil {
		return err
	}
	if err := m.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func runStatus() error {
	m, err := authManager()
	if err != nil {
		return err
	}
	if err := m.Status(); err != nil {
		fmt.Printf("No usable session: %v\n", err)
		return nil
	}
	fmt.Println("Logged in.")
	return nil
}

func runOpen(target string) error {
	var path string
	var err error

	switch target {
	case "config":
		path, err = config.ConfigPath()
		if err == nil {
			err = ensureConfig(path)
		}
	case "cache":
		path, err = config.CacheDir()
		if err == nil {
			err = os.MkdirAll(path, 0755)
		}
	default:
		return fmt.Errorf("unknown target: %s", target)
	}

	if err != nil {
		return fmt.Errorf("failed to get path: %w", err)
	}

	if err := browser.OpenFile(path); err != nil {
		return fmt.Errorf("failed to open: %w", err)
	}
	return nil
}

// ensureConfig writes a default config file so there is something to edit
func ensureConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := config.Default().Save(); err != nil {
		return err
	}
	logging.Info("Created default config", "path", path)
	return nil
}

func runProviders() {
	for _, info := range providers.Catalog() {
		fmt.Printf("%s (%s) - %s\n", info.ID, info.Name, info.Description)
		for _, model := range info.Models {
			marker := " "
			if model == info.DefaultModel {
				marker = "*"
			}
			fmt.Printf("  %s %s\n", marker, model)
		}
		fmt.Println()
	}
}

func runTemplates() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pm := prompts.Open(cfg.Prompts.Dir, cfg.Prompts.Config)

	fmt.Println("Templates:")
	for _, name := range pm.AvailableTemplates() {
		fmt.Printf("  %s\n", name)
	}

	fmt.Println()
	fmt.Println("Templates by analysis type:")
	for _, kind := range append(prompts.AnalysisKinds(), prompts.KindFilter) {
		fmt.Printf("  %-12s %s\n", kind, pm.ResolveTemplateName(kind, "", ""))
	}

	fmt.Println()
	fmt.Println("Provider overrides:")
	found := false
	for _, info := range providers.Catalog() {
		for _, model := range info.Models {
			pref := pm.ProviderPreferences(string(info.ID), model)
			if pref.PreferredTemplate == "" {
				continue
			}
			found = true
			fmt.Printf("  %-12s %-36s %s\n", info.ID, model, pref.PreferredTemplate)
		}
	}
	if !found {
		fmt.Println("  none")
	}
	return nil
}

func runExchanges(dir string) error {
	paths, err := store.ListExchanges(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Printf("No exchanges in %s\n", dir)
		return nil
	}

	for _, path := range paths {
		ex, err := store.LoadExchange(path)
		if err != nil {
			logging.Warn("Skipping unreadable exchange", "path", path, "err", err)
			continue
		}
		status := fmt.Sprintf("%d chars", len(ex.Response))
		if ex.Error != "" {
			status = "error: " + ex.Error
		}
		fmt.Printf("%s  %-10s %-32s %-12s %s\n",
			ex.Timestamp.Local().Format("2006-01-02 15:04:05"), ex.Provider, ex.Model, ex.Kind, status)
	}
	return nil
}

func runBotTest(ctx context.Context) error {
	logging.Info("Opening bot.sannysoft.com with stealth browser options...")

	browserCtx, cancel := browseropts.NewContext(ctx, false) // non-headless so you can see it
	defer cancel()

	err := chromedp.Run(browserCtx,
		chromedp.Navigate("https://bot.sannysoft.com"),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}

	fmt.Println("Press Enter to close the browser...")
	fmt.Scanln()
	return nil
}
