package providers

import (
	"fmt"
	"strings"
)

// ID identifies an LLM backend
type ID string

const (
	Gemini     ID = "gemini"
	OpenRouter ID = "openrouter"
	Anthropic  ID = "anthropic"
)

// Info describes a provider for listing. It never depends on live config.
type Info struct {
	ID           ID
	Name         string
	Description  string
	DefaultModel string
	Models       []string
	EnvKey       string // environment variable holding the API key
}

// catalog is ordered by default-selection priority
var catalog = []Info{
	{
		ID:           Gemini,
		Name:         "Gemini",
		Description:  "Google's advanced AI model with strong reasoning capabilities",
		DefaultModel: "gemini-1.5-flash",
		Models: []string{
			"gemini-1.5-flash",
			"gemini-1.5-pro",
			"gemini-2.0-flash",
			"gemini-2.5-flash",
			"gemini-2.5-pro",
		},
		EnvKey: "GEMINI_API_KEY",
	},
	{
		ID:           OpenRouter,
		Name:         "OpenRouter",
		Description:  "Access to multiple AI models including Claude, GPT-4, Llama, and more",
		DefaultModel: "anthropic/claude-3.5-sonnet",
		Models: []string{
			// Anthropic
			"anthropic/claude-3.5-sonnet",
			"anthropic/claude-3-opus",
			"anthropic/claude-3-haiku",
			// OpenAI
			"openai/gpt-4o",
			"openai/gpt-4o-mini",
			"openai/gpt-4-turbo",
			// Google
			"google/gemini-pro-1.5",
			"google/gemini-flash-1.5",
			// Meta
			"meta-llama/llama-3.1-405b-instruct",
			"meta-llama/llama-3.1-70b-instruct",
			"meta-llama/llama-3.1-8b-instruct",
			// Mistral
			"mistralai/mistral-large",
			"mistralai/mistral-small",
			// Other
			"cohere/command-r-plus",
			"qwen/qwen-2-72b-instruct",
		},
		EnvKey: "OPENROUTER_API_KEY",
	},
	{
		ID:           Anthropic,
		Name:         "Anthropic",
		Description:  "Claude models called directly through the Anthropic API",
		DefaultModel: "claude-sonnet-4-20250514",
		Models: []string{
			"claude-sonnet-4-20250514",
			"claude-opus-4-1-20250805",
			"claude-3-5-haiku-latest",
		},
		EnvKey: "ANTHROPIC_API_KEY",
	},
}

// Supported returns every provider ID in priority order
func Supported() []ID {
	ids := make([]ID, len(catalog))
	for i, info := range catalog {
		ids[i] = info.ID
	}
	return ids
}

// Catalog returns a copy of the provider catalog in priority order
func Catalog() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for id
func Lookup(id ID) (Info, bool) {
	for _, info := range catalog {
		if info.ID == id {
			return info, true
		}
	}
	return Info{}, false
}

// ParseID validates a user-supplied provider name
func ParseID(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := Lookup(id); !ok {
		return "", fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedProvider, s, joinIDs(Supported()))
	}
	return id, nil
}

// Default picks the first provider, in priority order, that has a key.
// With no keys at all it returns Gemini.
func Default(keys map[ID]string) ID {
	for _, id := range Supported() {
		if keys[id] != "" {
			return id
		}
	}
	return Gemini
}

func joinIDs(ids []ID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}
