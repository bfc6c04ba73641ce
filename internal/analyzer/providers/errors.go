package providers

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration errors, reported before any network call
var (
	ErrUnsupportedProvider = errors.New("unsupported AI provider")
	ErrMissingAPIKey       = errors.New("API key is required")
)

// Normalized backend failure kinds
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrQuotaExceeded  = errors.New("quota exceeded")
	ErrContentBlocked = errors.New("content blocked by safety filters")
	ErrModelNotFound  = errors.New("model not found")
	ErrEmptyResponse  = errors.New("empty response")
)

// ProviderError is a backend failure normalized to one of the kinds above.
// Kind is nil for unrecognized failures. errors.Is matches both Kind and the
// underlying error.
type ProviderError struct {
	Provider ID
	Model    string
	Kind     error
	Err      error
}

func (e *ProviderError) Error() string {
	info, _ := Lookup(e.Provider)
	name := info.Name
	if name == "" {
		name = string(e.Provider)
	}

	switch e.Kind {
	case ErrAuthentication:
		return fmt.Sprintf("%s API authentication failed. Please check your %s.", name, info.EnvKey)
	case ErrRateLimited:
		return fmt.Sprintf("%s API rate limit exceeded. Please try again later.", name)
	case ErrQuotaExceeded:
		return fmt.Sprintf("%s API quota exceeded. Please check your credits or billing.", name)
	case ErrContentBlocked:
		return fmt.Sprintf("Content was blocked by %s safety filters. Try a different keyword.", name)
	case ErrModelNotFound:
		return fmt.Sprintf("%s model not found. Please check if the model %q is available.", name, e.Model)
	case ErrEmptyResponse:
		return fmt.Sprintf("Empty response from %s model", name)
	}
	return fmt.Sprintf("%s AI error: %v", name, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// normalize wraps err as a ProviderError. Errors already carrying a kind
// sentinel keep it; otherwise classify decides, falling back to message
// signatures.
func normalize(id ID, model string, err error, classify func(error) error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}

	kind := knownKind(err)
	if kind == nil && classify != nil {
		kind = classify(err)
	}
	if kind == nil {
		kind = classifyMessage(err.Error())
	}
	return &ProviderError{Provider: id, Model: model, Kind: kind, Err: err}
}

func knownKind(err error) error {
	for _, kind := range []error{ErrAuthentication, ErrRateLimited, ErrQuotaExceeded, ErrContentBlocked, ErrModelNotFound, ErrEmptyResponse} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// classifyMessage matches the error signatures the backends put in their
// messages when no structured status is available.
func classifyMessage(msg string) error {
	switch {
	case strings.Contains(msg, "API_KEY"), strings.Contains(msg, "UNAUTHENTICATED"), strings.Contains(msg, "PERMISSION_DENIED"):
		return ErrAuthentication
	case strings.Contains(msg, "insufficient_quota"), strings.Contains(strings.ToLower(msg), "quota"):
		return ErrQuotaExceeded
	case strings.Contains(msg, "SAFETY"):
		return ErrContentBlocked
	case strings.Contains(msg, "model_not_found"):
		return ErrModelNotFound
	case strings.Contains(msg, "429"):
		return ErrRateLimited
	case strings.Contains(msg, "401"):
		return ErrAuthentication
	}
	return nil
}

// classifyStatus maps an HTTP status from a backend SDK error
func classifyStatus(status int, code string) error {
	switch {
	case code == "insufficient_quota":
		return ErrQuotaExceeded
	case code == "model_not_found":
		return ErrModelNotFound
	case status == 401, status == 403:
		return ErrAuthentication
	case status == 402:
		return ErrQuotaExceeded
	case status == 404:
		return ErrModelNotFound
	case status == 429:
		return ErrRateLimited
	}
	return nil
}
