package prompts

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/ibeckermayer/xstoryfinder/internal/logging"
	"github.com/ibeckermayer/xstoryfinder/internal/types"
)

//go:embed assets
var assets embed.FS

const (
	assetsConfig    = "assets/prompt-config.toml"
	assetsTemplates = "assets/templates"
)

// Manager resolves, loads and renders prompt templates. It is read-only
// after construction.
type Manager struct {
	templates fs.FS
	config    Config
}

// New creates a Manager over a template filesystem and a loaded config
func New(templates fs.FS, cfg Config) *Manager {
	return &Manager{templates: templates, config: cfg}
}

// Default returns a Manager over the built-in templates and config
func Default() *Manager {
	return New(embeddedTemplates(), LoadConfig(assets, assetsConfig))
}

// Open returns a Manager for on-disk overrides. An empty dir uses the
// built-in templates; an empty configPath uses the built-in config.
func Open(dir, configPath string) *Manager {
	templates := embeddedTemplates()
	if dir != "" {
		templates = os.DirFS(dir)
	}

	var cfg Config
	if configPath != "" {
		cfg = LoadConfigFile(configPath)
	} else {
		cfg = LoadConfig(assets, assetsConfig)
	}
	return New(templates, cfg)
}

func embeddedTemplates() fs.FS {
	sub, err := fs.Sub(assets, assetsTemplates)
	if err != nil {
		// assetsTemplates is a valid path literal
		panic(err)
	}
	return sub
}

// Prompt resolves the template for kind (honoring provider/model overrides),
// loads it, and renders it with vars and posts.
func (m *Manager) Prompt(kind Kind, vars Variables, posts []types.Post, provider, model string) string {
	name := m.ResolveTemplateName(kind, provider, model)
	tmpl := m.LoadTemplate(name)
	return Render(tmpl, vars, posts, m.config.Settings, kind)
}

// ResolveTemplateName picks a template name. First match wins: model-specific
// override, provider override, template for kind, template for default, then
// FallbackTemplateName.
func (m *Manager) ResolveTemplateName(kind Kind, provider, model string) string {
	if provider != "" {
		if pref := m.ProviderPreferences(provider, model); pref.PreferredTemplate != "" {
			return pref.PreferredTemplate
		}
	}

	if name := m.config.Templates[string(kind)]; name != "" {
		return name
	}
	if name := m.config.Templates[string(KindDefault)]; name != "" {
		return name
	}
	return FallbackTemplateName
}

// LoadTemplate reads the named template, falling back to the built-in
// template on any failure.
func (m *Manager) LoadTemplate(name string) string {
	data, err := fs.ReadFile(m.templates, name)
	if err != nil {
		logging.Warn("Could not load template, using fallback", "template", name, "err", err)
		return FallbackTemplate
	}
	return string(data)
}

// AvailableTemplates lists template names (without .md) in the store
func (m *Manager) AvailableTemplates() []string {
	entries, err := fs.ReadDir(m.templates, ".")
	if err != nil {
		return []string{"default"}
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".md"))
	}
	sort.Strings(names)
	return names
}

// ProviderPreferences returns the provider's preference with the
// model-specific override applied on top.
func (m *Manager) ProviderPreferences(provider, model string) Preference {
	prefs, ok := m.config.ProviderPreferences[provider]
	if !ok {
		return Preference{}
	}
	merged := Preference{PreferredTemplate: prefs.PreferredTemplate}
	if mp, ok := prefs.ModelSpecific[model]; ok && model != "" && mp.PreferredTemplate != "" {
		merged.PreferredTemplate = mp.PreferredTemplate
	}
	return merged
}

// FallbackTemplate is used whenever a template file cannot be read
const FallbackTemplate = `You are an expert social media trend analyst. Please analyze the following collection of posts about "{{keyword}}".

Please provide a comprehensive analysis with the following sections:

🎯 **KEY THEMES**
Identify the main discussion themes and topics (3-5 key themes)

📊 **SENTIMENT ANALYSIS**
Analyze the overall sentiment (positive/negative/neutral) with percentages if possible

👥 **KEY INSIGHTS**
Notable patterns, trending opinions, or emerging narratives

📝 **EXECUTIVE SUMMARY**
A concise summary of findings (150-200 words)

Post Collection ({{tweet_count}} posts):
{{tweets}}

Please format your response with clear sections and emojis as shown above.`
