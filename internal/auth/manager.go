package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/ibeckermayer/xstoryfinder/internal/browser"
	"github.com/ibeckermayer/xstoryfinder/internal/logging"
)

const (
	loginURL     = "https://x.com/login"
	loginTimeout = 5 * time.Minute
	pollInterval = 2 * time.Second
)

// Manager handles the interactive X login used by the browser source
type Manager struct {
	store *CookieStore
}

// NewManager creates a new auth manager
func NewManager(store *CookieStore) *Manager {
	return &Manager{store: store}
}

// Status returns nil when a usable session is stored
func (m *Manager) Status() error {
	session, err := m.store.Load()
	if err != nil {
		return err
	}
	return session.Check(time.Now())
}

// Login opens a visible browser for the user to sign in to X and stores the
// session cookies once the home timeline loads
func (m *Manager) Login(ctx context.Context) error {
	browserCtx, cancel := browser.NewContext(ctx, false)
	defer cancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(loginURL)); err != nil {
		return fmt.Errorf("failed to navigate to login page: %w", err)
	}

	logging.Info("Waiting for login to complete in the browser window", "timeout", loginTimeout)
	cookies, err := waitForLogin(browserCtx)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := m.store.Save(cookies, time.Now()); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}
	logging.Info("Saved X session", "path", m.store.Path())
	return nil
}

// waitForLogin polls until the browser reaches the home timeline with an
// auth_token cookie set
func waitForLogin(ctx context.Context) ([]*network.Cookie, error) {
	timeout := time.After(loginTimeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return nil, errors.New("login timeout exceeded")
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			var url string
			if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
				continue
			}
			if !isHomeURL(url) {
				continue
			}

			cookies, err := allCookies(ctx)
			if err != nil {
				continue
			}
			session := Session{Cookies: cookies}
			if session.has("auth_token") {
				return cookies, nil
			}
		}
	}
}

func isHomeURL(url string) bool {
	url = strings.TrimSuffix(url, "/")
	return url == "https://x.com/home" || url == "https://twitter.com/home"
}

func allCookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie
	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)
	return cookies, err
}

// Logout clears stored credentials
func (m *Manager) Logout() error {
	return m.store.Clear()
}

// Cookies returns the stored x.com cookies for the scraper
func (m *Manager) Cookies() ([]*network.Cookie, error) {
	return m.store.XCookies(time.Now())
}
