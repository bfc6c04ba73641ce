package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/network"

	"github.com/ibeckermayer/xstoryfinder/internal/config"
)

// Session cookies X needs for an authenticated search
var requiredCookies = []string{"auth_token", "ct0"}

var (
	ErrNoSession      = errors.New("no stored X session; run `xsf login` first")
	ErrSessionExpired = errors.New("stored X session has expired; run `xsf login` again")
)

// CookieStore persists the X session cookies captured at login
type CookieStore struct {
	path string
}

// Session is the persisted cookie data
type Session struct {
	Cookies    []*network.Cookie `json:"cookies"`
	CapturedAt time.Time         `json:"captured_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// NewCookieStore creates a cookie store at the given path
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path}
}

// DefaultCookieStore returns the store under the config directory
func DefaultCookieStore() (*CookieStore, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	return NewCookieStore(filepath.Join(dir, "cookies.json")), nil
}

// Path returns the file backing the store
func (cs *CookieStore) Path() string {
	return cs.path
}

// Save persists cookies, recording the earliest expiry among the session
// cookies
func (cs *CookieStore) Save(cookies []*network.Cookie, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(cs.path), 0700); err != nil {
		return err
	}

	session := Session{
		Cookies:    normalizeCookies(cookies),
		CapturedAt: now,
		ExpiresAt:  sessionExpiry(cookies),
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(cs.path, data, 0600)
}

// normalizeCookies copies cookies, filling enum fields the browser may leave
// empty. cdproto rejects "" for these when decoding.
func normalizeCookies(cookies []*network.Cookie) []*network.Cookie {
	out := make([]*network.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		cp := *c
		if cp.Priority == "" {
			cp.Priority = network.CookiePriorityMedium
		}
		if cp.SourceScheme == "" {
			cp.SourceScheme = network.CookieSourceSchemeUnset
		}
		out = append(out, &cp)
	}
	return out
}

// Load reads the stored session
func (cs *CookieStore) Load() (*Session, error) {
	data, err := os.ReadFile(cs.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", cs.path, err)
	}
	return &session, nil
}

// Clear removes the stored session. A missing file is not an error.
func (cs *CookieStore) Clear() error {
	if err := os.Remove(cs.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// XCookies returns the valid session's x.com cookies for injection into a
// browser
func (cs *CookieStore) XCookies(now time.Time) ([]*network.Cookie, error) {
	session, err := cs.Load()
	if err != nil {
		return nil, err
	}
	if err := session.Check(now); err != nil {
		return nil, err
	}

	var out []*network.Cookie
	for _, c := range session.Cookies {
		if c.Domain == ".x.com" || c.Domain == "x.com" {
			out = append(out, c)
		}
	}
	return out, nil
}

// Check reports why a session cannot be used, or nil
func (s *Session) Check(now time.Time) error {
	for _, name := range requiredCookies {
		if !s.has(name) {
			return fmt.Errorf("%w (missing %s cookie)", ErrNoSession, name)
		}
	}
	if !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt) {
		return ErrSessionExpired
	}
	return nil
}

func (s *Session) has(name string) bool {
	for _, c := range s.Cookies {
		if c.Name == name && c.Value != "" {
			return true
		}
	}
	return false
}

func sessionExpiry(cookies []*network.Cookie) time.Time {
	var earliest time.Time
	for _, c := range cookies {
		if !isRequired(c.Name) || c.Expires <= 0 {
			continue
		}
		exp := time.Unix(int64(c.Expires), 0)
		if earliest.IsZero() || exp.Before(earliest) {
			earliest = exp
		}
	}
	return earliest
}

func isRequired(name string) bool {
	for _, r := range requiredCookies {
		if r == name {
			return true
		}
	}
	return false
}
