package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/ibeckermayer/xstoryfinder/internal/prompts"
)

// GeminiProvider implements the Provider interface using Google's Gemini API
type GeminiProvider struct {
	base
	client *genai.Client
}

func newGeminiProvider(info Info, cfg Config, pm *prompts.Manager) (*GeminiProvider, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	// No network activity happens here; the context only scopes client setup.
	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	p := &GeminiProvider{
		base:   base{info: info, cfg: cfg, prompts: pm, classify: classifyGemini},
		client: client,
	}
	p.complete = p.generate
	return p, nil
}

func (p *GeminiProvider) generate(ctx context.Context, prompt, model string) (string, error) {
	temperature := float32(p.cfg.temperature())
	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: int32(p.cfg.maxTokens()),
		Temperature:     &temperature,
	})
	if err != nil {
		return "", err
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: response blocked", ErrContentBlocked)
	}

	return resp.Text(), nil
}

func classifyGemini(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var ptr *genai.APIError
		if !errors.As(err, &ptr) || ptr == nil {
			return nil
		}
		apiErr = *ptr
	}

	switch {
	case apiErr.Code == 400 && strings.Contains(apiErr.Message, "API key"):
		return ErrAuthentication
	case apiErr.Code == 429 && strings.Contains(strings.ToLower(apiErr.Message), "quota"):
		return ErrQuotaExceeded
	}
	return classifyStatus(apiErr.Code, "")
}
