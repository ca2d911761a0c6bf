package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/forumscan/internal/model"
	"github.com/nao1215/forumscan/internal/transport"
)

// memoryStore is an in-memory Store for tests.
type memoryStore struct {
	mu      sync.Mutex
	session *model.Session
	saves   int
	loadErr error
}

func (m *memoryStore) Load() (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.session == nil {
		return nil, ErrNoSession
	}
	copied := *m.session
	return &copied, nil
}

func (m *memoryStore) Save(s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	copied := *s
	m.session = &copied
	return nil
}

func sessionWith(value string) *model.Session {
	return &model.Session{Cookies: []model.Cookie{{Name: "_t", Value: value}}}
}

// forumServer accepts requests carrying the cookie _t=good.
func forumServer(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		if !strings.Contains(r.Header.Get("Cookie"), "_t=good") {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"errors":["not logged in"]}`)
			return
		}
		fmt.Fprint(w, `{"topic_list":{"topics":[]}}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestManager(t *testing.T, srv *httptest.Server, store Store, auth Authenticator, opts ...ManagerOption) *Manager {
	t.Helper()

	tc, err := transport.NewClient(transport.WithTimeout(5 * time.Second))
	if err != nil {
		t.Fatalf("transport.NewClient failed: %v", err)
	}
	base := []ManagerOption{WithManagerLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	m, err := NewManager(store, auth, tc, srv.URL+"/c/courses/tds-kb/34.json", append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

// TestManagerEnsureSession tests the session lifecycle.
func TestManagerEnsureSession(t *testing.T) {
	t.Parallel()

	t.Run("valid stored session is reused", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int32
		srv := forumServer(t, &requests)
		store := &memoryStore{session: sessionWith("good")}
		var bootstraps atomic.Int32
		auth := AuthenticatorFunc(func(context.Context) (*model.Session, error) {
			bootstraps.Add(1)
			return sessionWith("good"), nil
		})

		s, err := newTestManager(t, srv, store, auth).EnsureSession(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !s.Valid {
			t.Error("expected session to be marked valid")
		}
		if bootstraps.Load() != 0 {
			t.Errorf("expected no bootstrap, got %d", bootstraps.Load())
		}
		if requests.Load() != 1 {
			t.Errorf("expected exactly one validation request, got %d", requests.Load())
		}
	})

	t.Run("missing session triggers bootstrap", func(t *testing.T) {
		t.Parallel()

		srv := forumServer(t, nil)
		store := &memoryStore{}

		s, err := newTestManager(t, srv, store, StaticAuthenticator{Session: sessionWith("good")}).EnsureSession(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !s.Valid || s.CreatedAt.IsZero() {
			t.Errorf("unexpected session: %+v", s)
		}
		if store.saves != 1 {
			t.Errorf("expected the new session to be persisted once, got %d", store.saves)
		}
	})

	t.Run("rejected session is replaced", func(t *testing.T) {
		t.Parallel()

		srv := forumServer(t, nil)
		store := &memoryStore{session: sessionWith("expired")}

		s, err := newTestManager(t, srv, store, StaticAuthenticator{Session: sessionWith("good")}).EnsureSession(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Cookies[0].Value != "good" {
			t.Errorf("expected new session, got %+v", s.Cookies)
		}
		if store.session.Cookies[0].Value != "good" {
			t.Error("expected new session to be persisted")
		}
	})

	t.Run("unreadable store triggers bootstrap", func(t *testing.T) {
		t.Parallel()

		srv := forumServer(t, nil)
		store := &memoryStore{loadErr: errors.New("corrupt")}

		if _, err := newTestManager(t, srv, store, StaticAuthenticator{Session: sessionWith("good")}).EnsureSession(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("failed bootstrap is an auth error", func(t *testing.T) {
		t.Parallel()

		srv := forumServer(t, nil)
		cause := errors.New("browser crashed")
		auth := AuthenticatorFunc(func(context.Context) (*model.Session, error) {
			return nil, cause
		})

		_, err := newTestManager(t, srv, &memoryStore{}, auth).EnsureSession(context.Background())

		var authErr *AuthError
		if !errors.As(err, &authErr) || authErr.Op != "bootstrap" {
			t.Fatalf("expected bootstrap AuthError, got %v", err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("expected cause to be wrapped, got %v", err)
		}
	})

	t.Run("bootstrapped session that is still rejected is an auth error", func(t *testing.T) {
		t.Parallel()

		srv := forumServer(t, nil)

		_, err := newTestManager(t, srv, &memoryStore{}, StaticAuthenticator{Session: sessionWith("bad")}).EnsureSession(context.Background())
		if !errors.Is(err, ErrSessionInvalid) {
			t.Errorf("expected ErrSessionInvalid, got %v", err)
		}
	})
}

// TestManagerValidate tests the validation rules.
func TestManagerValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		delay   time.Duration
		session *model.Session
		want    bool
	}{
		{name: "topic list object", status: http.StatusOK, body: `{"topic_list":{"topics":[]}}`, session: sessionWith("x"), want: true},
		{name: "forbidden", status: http.StatusForbidden, body: `{"topic_list":{}}`, session: sessionWith("x"), want: false},
		{name: "html login page", status: http.StatusOK, body: `<html><body>Log in</body></html>`, session: sessionWith("x"), want: false},
		{name: "json without topic list", status: http.StatusOK, body: `{"users":[]}`, session: sessionWith("x"), want: false},
		{name: "null topic list", status: http.StatusOK, body: `{"topic_list":null}`, session: sessionWith("x"), want: false},
		{name: "json array", status: http.StatusOK, body: `[1,2]`, session: sessionWith("x"), want: false},
		{name: "timeout", status: http.StatusOK, body: `{"topic_list":{}}`, delay: 500 * time.Millisecond, session: sessionWith("x"), want: false},
		{name: "no cookies", status: http.StatusOK, body: `{"topic_list":{}}`, session: &model.Session{}, want: false},
		{name: "nil session", status: http.StatusOK, body: `{"topic_list":{}}`, session: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.delay > 0 {
					select {
					case <-time.After(tt.delay):
					case <-r.Context().Done():
						return
					}
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			m := newTestManager(t, srv, &memoryStore{}, StaticAuthenticator{}, WithValidateTimeout(50*time.Millisecond))
			if got := m.Validate(context.Background(), tt.session); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestNewManager tests construction errors.
func TestNewManager(t *testing.T) {
	t.Parallel()

	tc, err := transport.NewClient()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := NewManager(&memoryStore{}, StaticAuthenticator{}, tc, "not a url"); err == nil {
		t.Error("expected error for invalid URL")
	}

	m, err := NewManager(&memoryStore{}, StaticAuthenticator{}, tc, "https://forum.example.com/c/x/1.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Host() != "forum.example.com" {
		t.Errorf("unexpected host %q", m.Host())
	}
}
