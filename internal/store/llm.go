package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Exchange represents a prompt/response pair written out for debugging
type Exchange struct {
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider"` // e.g. "gemini"
	Model     string    `json:"model"`
	Kind      string    `json:"kind"` // analysis kind, or "filter"
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	Error     string    `json:"error,omitempty"`
}

// SaveExchange serializes an exchange to JSON and writes it to a timestamped
// file in dir. Returns the path to the saved file.
func SaveExchange(dir string, exchange Exchange) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create dump dir: %w", err)
	}

	ts := exchange.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	// Dashes instead of colons for filesystem compatibility
	filename := fmt.Sprintf("%s-%s-%s.json", ts.Format("2006-01-02T15-04-05.000000"), exchange.Provider, exchange.Kind)
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(exchange, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal exchange: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write exchange: %w", err)
	}

	return path, nil
}

// ListExchanges returns the exchange files in dir, oldest first
func ListExchanges(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	// timestamp prefix sorts chronologically; Glob already returns sorted names
	return matches, nil
}

// LoadExchange reads one exchange file back
func LoadExchange(path string) (*Exchange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ex Exchange
	if err := json.Unmarshal(data, &ex); err != nil {
		return nil, fmt.Errorf("failed to parse exchange %s: %w", path, err)
	}
	return &ex, nil
}
