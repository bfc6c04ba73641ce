package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/ibeckermayer/xstoryfinder/internal/analyzer/providers"
)

const appName = "xstoryfinder"

// Post sources
const (
	SourceAPI     = "api"
	SourceBrowser = "browser"
)

// Config holds all application configuration
type Config struct {
	Version  int            `toml:"version"`
	Search   SearchConfig   `toml:"search"`
	Analysis AnalysisConfig `toml:"analysis"`
	Prompts  PromptsConfig  `toml:"prompts"`
	Browser  BrowserConfig  `toml:"browser"`
	Debug    DebugConfig    `toml:"debug"`
}

type SearchConfig struct {
	Source      string `toml:"source"` // "api" or "browser"
	BearerToken string `toml:"bearer_token"`
	BaseURL     string `toml:"base_url"`
	Limit       int    `toml:"limit"`
	Dedupe      string `toml:"dedupe"` // "id" or "text"
}

type AnalysisConfig struct {
	Provider    string  `toml:"provider"` // empty picks the first provider with a key
	Model       string  `toml:"model"`
	Type        string  `toml:"type"`
	Filter      bool    `toml:"filter"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	Keys        APIKeys `toml:"keys"`
}

type APIKeys struct {
	Gemini     string `toml:"gemini"`
	OpenRouter string `toml:"openrouter"`
	Anthropic  string `toml:"anthropic"`
}

type PromptsConfig struct {
	Dir    string `toml:"dir"`    // template directory; empty uses built-in templates
	Config string `toml:"config"` // prompt-config.toml path; empty uses the built-in one
}

type BrowserConfig struct {
	Headless   bool `toml:"headless"`
	MaxScrolls int  `toml:"max_scrolls"`
}

type DebugConfig struct {
	DumpDir string `toml:"dump_dir"` // write every LLM exchange here when set
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			Source: SourceAPI,
			Limit:  50,
			Dedupe: "id",
		},
		Analysis: AnalysisConfig{
			Type:        "default",
			MaxTokens:   providers.DefaultMaxTokens,
			Temperature: providers.DefaultTemperature,
		},
		Browser: BrowserConfig{
			Headless:   true,
			MaxScrolls: 20,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, appName), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from the default path, then applies .env files and
// environment overrides
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path. A missing file yields defaults; a
// malformed one is an error. Environment overrides are applied last.
func LoadFile(path string) (*Config, error) {
	cfg, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	LoadDotEnv(filepath.Join(filepath.Dir(path), ".env"))
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

func decodeFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads .env from the working directory plus any extra files.
// Missing files are skipped and existing environment variables win.
func LoadDotEnv(extra ...string) {
	for _, path := range append([]string{".env"}, extra...) {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// godotenv.Load never overrides variables already set
		_ = godotenv.Load(path)
	}
}

// ApplyEnv overrides credentials and provider selection from the environment
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Search.BearerToken, "X_BEARER_TOKEN")
	set(&c.Analysis.Keys.Gemini, "GEMINI_API_KEY")
	set(&c.Analysis.Keys.OpenRouter, "OPENROUTER_API_KEY")
	set(&c.Analysis.Keys.Anthropic, "ANTHROPIC_API_KEY")
	set(&c.Analysis.Provider, "AI_PROVIDER")
	set(&c.Analysis.Model, "AI_MODEL")
}

// Keys returns the configured API key per provider
func (c *Config) Keys() map[providers.ID]string {
	return map[providers.ID]string{
		providers.Gemini:     c.Analysis.Keys.Gemini,
		providers.OpenRouter: c.Analysis.Keys.OpenRouter,
		providers.Anthropic:  c.Analysis.Keys.Anthropic,
	}
}

// ProviderID returns the configured provider, or the first one with a key
func (c *Config) ProviderID() (providers.ID, error) {
	if c.Analysis.Provider == "" {
		return providers.Default(c.Keys()), nil
	}
	return providers.ParseID(c.Analysis.Provider)
}

// ProviderConfig assembles the provider settings for id
func (c *Config) ProviderConfig(id providers.ID) providers.Config {
	return providers.Config{
		Provider:    id,
		APIKey:      c.Keys()[id],
		Model:       c.Analysis.Model,
		MaxTokens:   c.Analysis.MaxTokens,
		Temperature: c.Analysis.Temperature,
		DumpDir:     c.Debug.DumpDir,
	}
}

// Validate checks values a run depends on
func (c *Config) Validate() error {
	if c.Search.Limit <= 0 {
		return fmt.Errorf("invalid limit: %d (must be a positive number)", c.Search.Limit)
	}
	switch c.Search.Source {
	case SourceAPI, SourceBrowser:
	default:
		return fmt.Errorf("unsupported source: %s (supported: %s, %s)", c.Search.Source, SourceAPI, SourceBrowser)
	}
	if c.Search.Source == SourceAPI && c.Search.BearerToken == "" {
		return errors.New("X_BEARER_TOKEN is required for the api source")
	}
	return nil
}

// Save writes config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}
