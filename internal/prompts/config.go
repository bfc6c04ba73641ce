package prompts

import (
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/ibeckermayer/xstoryfinder/internal/logging"
)

// FallbackTemplateName is used when neither the requested kind nor "default"
// has a template configured.
const FallbackTemplateName = "social-media-analysis.md"

// Config maps analysis kinds to templates and holds rendering settings
type Config struct {
	Templates           map[string]string     `toml:"templates"`
	Settings            Settings              `toml:"settings"`
	ProviderPreferences map[string]Preference `toml:"provider_preferences"`
}

// Settings control how posts are rendered into the {{tweets}} block
type Settings struct {
	MaxPostLength   int  `toml:"max_post_length"` // 0 = no truncation
	MaxPostsDisplay int  `toml:"max_posts_display"`
	IncludeMetadata bool `toml:"include_metadata"`
	NumberPosts     bool `toml:"number_posts"`
}

// Preference overrides template selection for a provider or one of its models
type Preference struct {
	PreferredTemplate string                `toml:"preferred_template"`
	ModelSpecific     map[string]Preference `toml:"model_specific"`
}

// DefaultConfig returns the built-in prompt configuration
func DefaultConfig() Config {
	return Config{
		Templates: map[string]string{
			string(KindDefault):     "social-media-analysis.md",
			string(KindSentiment):   "sentiment-focused.md",
			string(KindTrends):      "trend-analysis.md",
			string(KindCompetitive): "competitive-analysis.md",
			string(KindFilter):      "relevance-filter.md",
		},
		Settings: Settings{
			MaxPostLength:   280,
			MaxPostsDisplay: 100,
			IncludeMetadata: false,
			NumberPosts:     true,
		},
		ProviderPreferences: map[string]Preference{},
	}
}

// LoadConfig decodes the named TOML file from fsys. A missing or malformed
// file yields DefaultConfig and a warning. Settings missing from a readable
// file keep their defaults.
func LoadConfig(fsys fs.FS, name string) Config {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		logging.Warn("Could not load prompt config, using defaults", "path", name, "err", err)
		return DefaultConfig()
	}
	return decodeConfig(data, name)
}

// LoadConfigFile is LoadConfig for a path on disk
func LoadConfigFile(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("Could not load prompt config, using defaults", "path", path, "err", err)
		return DefaultConfig()
	}
	return decodeConfig(data, path)
}

func decodeConfig(data []byte, source string) Config {
	cfg := Config{Settings: DefaultConfig().Settings}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		logging.Warn("Malformed prompt config, using defaults", "path", source, "err", err)
		return DefaultConfig()
	}
	if cfg.Templates == nil {
		cfg.Templates = map[string]string{}
	}
	if cfg.ProviderPreferences == nil {
		cfg.ProviderPreferences = map[string]Preference{}
	}
	return cfg
}
