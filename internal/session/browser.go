package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/nao1215/forumscan/internal/model"
)

// DefaultLoginTimeout bounds how long the browser waits for the human.
const DefaultLoginTimeout = 5 * time.Minute

// Waiter blocks until the human signals that login is complete.
type Waiter func(ctx context.Context) error

// LineWaiter prints prompt to w and waits for a line on r.
func LineWaiter(r io.Reader, w io.Writer, prompt string) Waiter {
	return func(ctx context.Context) error {
		if prompt != "" {
			fmt.Fprintln(w, prompt)
		}

		done := make(chan error, 1)
		go func() {
			_, err := bufio.NewReader(r).ReadString('\n')
			if errors.Is(err, io.EOF) {
				err = nil
			}
			done <- err
		}()

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// BrowserAuthenticator opens a visible Chromium window on the forum login
// page and captures the browser cookies once the human is done.
type BrowserAuthenticator struct {
	loginURL     string
	host         string
	loginTimeout time.Duration
	waiter       Waiter
	proxy        string
	browserBin   string
	logger       *slog.Logger
}

// BrowserOption configures a BrowserAuthenticator.
type BrowserOption func(*BrowserAuthenticator)

// WithLoginTimeout caps the time allowed for logging in.
func WithLoginTimeout(timeout time.Duration) BrowserOption {
	return func(b *BrowserAuthenticator) {
		if timeout > 0 {
			b.loginTimeout = timeout
		}
	}
}

// WithWaiter sets the completion signal. The default waits for Enter on stdin.
func WithWaiter(w Waiter) BrowserOption {
	return func(b *BrowserAuthenticator) {
		if w != nil {
			b.waiter = w
		}
	}
}

// WithBrowserProxy routes the browser through a SOCKS5 proxy ("host:port").
func WithBrowserProxy(address string) BrowserOption {
	return func(b *BrowserAuthenticator) {
		b.proxy = address
	}
}

// WithBrowserBin uses a specific Chromium binary instead of the one rod manages.
func WithBrowserBin(path string) BrowserOption {
	return func(b *BrowserAuthenticator) {
		b.browserBin = path
	}
}

// WithBrowserLogger sets the logger.
func WithBrowserLogger(logger *slog.Logger) BrowserOption {
	return func(b *BrowserAuthenticator) {
		b.logger = logger
	}
}

// NewBrowserAuthenticator creates an authenticator for the forum at baseURL.
// The default waiter reads stdin from in and prompts on out.
func NewBrowserAuthenticator(baseURL string, in io.Reader, out io.Writer, opts ...BrowserOption) (*BrowserAuthenticator, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	b := &BrowserAuthenticator{
		loginURL:     u.JoinPath("login").String(),
		host:         u.Hostname(),
		loginTimeout: DefaultLoginTimeout,
		waiter:       LineWaiter(in, out, "Log in to the forum in the browser window, then press Enter here."),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b, nil
}

// LoginURL returns the page opened in the browser.
func (b *BrowserAuthenticator) LoginURL() string {
	return b.loginURL
}

// Authenticate implements Authenticator.
func (b *BrowserAuthenticator) Authenticate(ctx context.Context) (*model.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, b.loginTimeout)
	defer cancel()

	l := launcher.New().Context(ctx).Headless(false)
	if b.proxy != "" {
		l = l.Proxy("socks5://" + b.proxy)
	}
	if b.browserBin != "" {
		l = l.Bin(b.browserBin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	defer browser.Close() //nolint:errcheck // the launcher is killed right after

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("open tab: %w", err)
	}
	if err := page.Navigate(b.loginURL); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", b.loginURL, err)
	}

	b.logger.Info("waiting for login to complete",
		"url", b.loginURL,
		"timeout", b.loginTimeout,
	)
	if err := b.waiter(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLoginTimeout
		}
		return nil, err
	}

	cookies, err := browser.GetCookies()
	if err != nil {
		return nil, fmt.Errorf("read browser cookies: %w", err)
	}

	captured := convertCookies(cookies, b.host)
	if len(captured) == 0 {
		return nil, ErrNoCookies
	}

	return &model.Session{
		Cookies:   captured,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// convertCookies keeps the browser cookies that would be sent to host.
func convertCookies(cookies []*proto.NetworkCookie, host string) []model.Cookie {
	out := make([]model.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c == nil {
			continue
		}
		cookie := model.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if !c.Session && c.Expires > 0 {
			cookie.Expires = c.Expires.Time().UTC()
		}
		if !cookie.MatchesHost(host) {
			continue
		}
		out = append(out, cookie)
	}
	return out
}
