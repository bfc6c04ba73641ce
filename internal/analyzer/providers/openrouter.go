package providers

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ibeckermayer/xstoryfinder/internal/prompts"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	openRouterReferer = "https://github.com/ibeckermayer/xstoryfinder"
	openRouterTitle   = "XStoryFinder"
)

// OpenRouterProvider implements the Provider interface over OpenRouter's
// OpenAI-compatible chat completions API
type OpenRouterProvider struct {
	base
	client *openai.Client
}

func newOpenRouterProvider(info Info, cfg Config, pm *prompts.Manager) *OpenRouterProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithHeader("HTTP-Referer", openRouterReferer),
		option.WithHeader("X-Title", openRouterTitle),
		option.WithMaxRetries(0),
	)

	p := &OpenRouterProvider{
		base:   base{info: info, cfg: cfg, prompts: pm, classify: classifyOpenAI},
		client: &client,
	}
	p.complete = p.chat
	return p
}

func (p *OpenRouterProvider) chat(ctx context.Context, prompt, model string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(int64(p.cfg.maxTokens())),
		Temperature: openai.Float(p.cfg.temperature()),
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAI(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return nil
	}
	return classifyStatus(apiErr.StatusCode, apiErr.Code)
}
