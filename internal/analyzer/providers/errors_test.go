package providers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestProviderErrorMessages(t *testing.T) {
	cause := errors.New("backend said no")

	tests := []struct {
		kind error
		want string
	}{
		{ErrAuthentication, "Gemini API authentication failed. Please check your GEMINI_API_KEY."},
		{ErrRateLimited, "Gemini API rate limit exceeded. Please try again later."},
		{ErrQuotaExceeded, "Gemini API quota exceeded. Please check your credits or billing."},
		{ErrContentBlocked, "Content was blocked by Gemini safety filters. Try a different keyword."},
		{ErrModelNotFound, `Gemini model not found. Please check if the model "gemini-x" is available.`},
		{ErrEmptyResponse, "Empty response from Gemini model"},
		{nil, "Gemini AI error: backend said no"},
	}

	for _, tt := range tests {
		err := &ProviderError{Provider: Gemini, Model: "gemini-x", Kind: tt.kind, Err: cause}
		assert.Equal(t, tt.want, err.Error())
		assert.Equal(t, true, errors.Is(err, cause))
		if tt.kind != nil {
			assert.Equal(t, true, errors.Is(err, tt.kind))
		}
	}
}

func TestNormalize(t *testing.T) {
	noClassify := func(error) error { return nil }

	tests := []struct {
		name     string
		err      error
		classify func(error) error
		want     error
	}{
		{name: "sentinel kept", err: fmt.Errorf("%w: prompt blocked", ErrContentBlocked), classify: noClassify, want: ErrContentBlocked},
		{name: "classifier wins", err: errors.New("status 429"), classify: func(error) error { return ErrQuotaExceeded }, want: ErrQuotaExceeded},
		{name: "api key message", err: errors.New("API_KEY_INVALID"), classify: noClassify, want: ErrAuthentication},
		{name: "quota message", err: errors.New("Resource has been exhausted (e.g. check quota)."), classify: noClassify, want: ErrQuotaExceeded},
		{name: "safety message", err: errors.New("candidate was blocked due to SAFETY"), classify: noClassify, want: ErrContentBlocked},
		{name: "model message", err: errors.New("model_not_found"), classify: noClassify, want: ErrModelNotFound},
		{name: "429 message", err: errors.New("429 Too Many Requests"), classify: noClassify, want: ErrRateLimited},
		{name: "401 message", err: errors.New("401 Unauthorized"), classify: noClassify, want: ErrAuthentication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := normalize(OpenRouter, "m", tt.err, tt.classify)
			var pe *ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ProviderError, got %T", err)
			}
			assert.Equal(t, tt.want, pe.Kind)
			assert.Equal(t, true, errors.Is(err, tt.err))
		})
	}
}

func TestNormalizeUnrecognized(t *testing.T) {
	cause := errors.New("connection reset by peer")

	err := normalize(Anthropic, "m", cause, nil)

	assert.Equal(t, "Anthropic AI error: connection reset by peer", err.Error())
	assert.Equal(t, true, errors.Is(err, cause))
	assert.Equal(t, false, errors.Is(err, ErrRateLimited))
}

func TestNormalizeKeepsProviderError(t *testing.T) {
	orig := &ProviderError{Provider: Gemini, Kind: ErrRateLimited}
	assert.Equal(t, error(orig), normalize(OpenRouter, "m", orig, nil))
	assert.Equal(t, nil, normalize(OpenRouter, "m", nil, nil))
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, ErrAuthentication, classifyStatus(401, ""))
	assert.Equal(t, ErrAuthentication, classifyStatus(403, ""))
	assert.Equal(t, ErrQuotaExceeded, classifyStatus(402, ""))
	assert.Equal(t, ErrQuotaExceeded, classifyStatus(429, "insufficient_quota"))
	assert.Equal(t, ErrRateLimited, classifyStatus(429, ""))
	assert.Equal(t, ErrModelNotFound, classifyStatus(400, "model_not_found"))
	assert.Equal(t, ErrModelNotFound, classifyStatus(404, ""))
	assert.Equal(t, nil, classifyStatus(500, ""))
}
