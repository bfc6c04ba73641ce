package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ibeckermayer/xstoryfinder/internal/prompts"
)

// AnthropicProvider implements the Provider interface using Anthropic's Claude API
type AnthropicProvider struct {
	base
	client *anthropic.Client
}

func newAnthropicProvider(info Info, cfg Config, pm *prompts.Manager) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	p := &AnthropicProvider{
		base:   base{info: info, cfg: cfg, prompts: pm, classify: classifyAnthropic},
		client: &client,
	}
	p.complete = p.message
	return p
}

func (p *AnthropicProvider) message(ctx context.Context, prompt, model string) (string, error) {
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(p.cfg.maxTokens()),
		Temperature: anthropic.Float(p.cfg.temperature()),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	// Concatenate text blocks; other block types carry no report text
	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

func classifyAnthropic(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return nil
	}
	return classifyStatus(apiErr.StatusCode, "")
}
