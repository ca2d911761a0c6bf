package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nao1215/forumscan/internal/model"
	"github.com/nao1215/forumscan/internal/transport"
)

// DefaultValidateTimeout bounds the single validation request.
const DefaultValidateTimeout = 10 * time.Second

// maxValidateBody caps how much of the validation response is decoded.
const maxValidateBody = 20 * 1024 * 1024

// Manager loads, validates and bootstraps the forum session.
type Manager struct {
	store           Store
	auth            Authenticator
	transport       *transport.Client
	validateURL     string
	host            string
	validateTimeout time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithValidateTimeout sets the timeout of the validation request.
func WithValidateTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		if timeout > 0 {
			m.validateTimeout = timeout
		}
	}
}

// WithManagerLogger sets the logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager. validateURL is the category listing JSON
// URL; a session is valid when that URL answers with a topic list.
func NewManager(store Store, auth Authenticator, tc *transport.Client, validateURL string, opts ...ManagerOption) (*Manager, error) {
	u, err := url.Parse(validateURL)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("invalid validation URL %q", validateURL)
	}

	m := &Manager{
		store:           store,
		auth:            auth,
		transport:       tc,
		validateURL:     validateURL,
		host:            u.Hostname(),
		validateTimeout: DefaultValidateTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m, nil
}

// Host returns the forum host the session is scoped to.
func (m *Manager) Host() string {
	return m.host
}

// EnsureSession returns a session proven valid by one validation request.
// A missing, unreadable or rejected stored session is replaced by running
// the Authenticator.
func (m *Manager) EnsureSession(ctx context.Context) (*model.Session, error) {
	stored, err := m.store.Load()
	switch {
	case errors.Is(err, ErrNoSession):
		m.logger.Info("no stored session, starting login")
	case err != nil:
		m.logger.Warn("stored session is unreadable, starting login", "error", err)
	default:
		if m.Validate(ctx, stored) {
			stored.Valid = true
			m.logger.Debug("stored session is valid", "cookies", stored.CookieNames())
			return stored, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		m.logger.Warn("stored session was rejected, starting login",
			"created_at", stored.CreatedAt,
		)
	}

	return m.Bootstrap(ctx)
}

// Bootstrap runs the Authenticator unconditionally, persists the new
// session and validates it.
func (m *Manager) Bootstrap(ctx context.Context) (*model.Session, error) {
	s, err := m.auth.Authenticate(ctx)
	if err != nil {
		return nil, &AuthError{Op: "bootstrap", Err: err}
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now().UTC()
	}

	if err := m.store.Save(s); err != nil {
		return nil, &AuthError{Op: "persist", Err: err}
	}

	if !m.Validate(ctx, s) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &AuthError{Op: "validate", Err: ErrSessionInvalid}
	}

	s.Valid = true
	m.logger.Info("session established", "cookies", s.CookieNames())
	return s, nil
}

// Validate reports whether the forum accepts s. It performs exactly one GET
// of the category listing, bounded by the validation timeout, and requires
// a 2xx response whose body is a JSON object with a topic_list field.
// Any failure, including a timeout, means invalid.
func (m *Manager) Validate(ctx context.Context, s *model.Session) bool {
	if s == nil || len(s.Cookies) == 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, m.validateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.validateURL, nil)
	if err != nil {
		m.logger.Debug("validation request could not be built", "error", err)
		return false
	}

	client := m.transport.NewHTTPClient(s, m.host)
	resp, err := client.Do(req)
	if err != nil {
		m.logger.Debug("validation request failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.logger.Debug("validation returned unexpected status", "status", resp.StatusCode)
		return false
	}

	var doc struct {
		TopicList json.RawMessage `json:"topic_list"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxValidateBody)).Decode(&doc); err != nil {
		m.logger.Debug("validation response is not JSON", "error", err)
		return false
	}
	if len(doc.TopicList) == 0 || string(doc.TopicList) == "null" {
		m.logger.Debug("validation response has no topic_list")
		return false
	}
	return true
}
