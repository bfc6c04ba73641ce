package providers

import (
	"fmt"

	"github.com/ibeckermayer/xstoryfinder/internal/prompts"
)

// New creates the provider selected by cfg.Provider. A nil pm uses the
// built-in templates. Unknown providers and missing keys fail here, before
// any network activity.
func New(cfg Config, pm *prompts.Manager) (Provider, error) {
	info, ok := Lookup(cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedProvider, cfg.Provider, joinIDs(Supported()))
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for %s provider (set %s)", ErrMissingAPIKey, info.Name, info.EnvKey)
	}
	if pm == nil {
		pm = prompts.Default()
	}

	switch cfg.Provider {
	case Gemini:
		p, err := newGeminiProvider(info, cfg, pm)
		if err != nil {
			return nil, err
		}
		return p, nil
	case OpenRouter:
		return newOpenRouterProvider(info, cfg, pm), nil
	case Anthropic:
		return newAnthropicProvider(info, cfg, pm), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}
