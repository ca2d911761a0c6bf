package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/forumscan/internal/model"
	"github.com/nao1215/forumscan/internal/session"
)

// TestSessionCmd tests session validation against a fake forum.
func TestSessionCmd(t *testing.T) {
	t.Parallel()

	t.Run("missing session", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runCLI(t, "session",
			"--config", writeTestConfig(t, ""),
			"--session-file", filepath.Join(t.TempDir(), "missing.json"),
		)
		if err == nil {
			t.Fatal("expected error for missing session")
		}
		if !strings.Contains(stdout, "No session stored at") {
			t.Errorf("unexpected output: %q", stdout)
		}
	})

	t.Run("valid session", func(t *testing.T) {
		t.Parallel()

		forum := newTestForum(t)
		stdout, _, err := runCLI(t, "session",
			"--config", writeTestConfig(t, ""),
			"--base-url", forum.srv.URL,
			"--session-file", saveTestSession(t, "good"),
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Status:       valid") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
		if strings.Contains(stdout, "good") {
			t.Error("cookie value must not be printed")
		}
	})

	t.Run("rejected session", func(t *testing.T) {
		t.Parallel()

		forum := newTestForum(t)
		stdout, _, err := runCLI(t, "session",
			"--config", writeTestConfig(t, ""),
			"--base-url", forum.srv.URL,
			"--session-file", saveTestSession(t, "stale"),
		)
		if !errors.Is(err, session.ErrSessionInvalid) {
			t.Fatalf("expected ErrSessionInvalid, got %v", err)
		}
		if !strings.Contains(stdout, "Status:       rejected") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})
}

// TestPrintSessionStatus tests the session description.
func TestPrintSessionStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := &model.Session{
		Cookies: []model.Cookie{
			{Name: "_t", Value: "secret-token", Domain: "forum.example.com"},
			{Name: "_forum_session", Value: "secret-session", Domain: "forum.example.com", Expires: now.Add(-time.Minute)},
		},
		CreatedAt: now.Add(-2 * time.Hour),
	}

	var buf bytes.Buffer
	printSessionStatus(&buf, "/tmp/session.json", "forum.example.com", s, true, now)
	got := buf.String()

	for _, want := range []string{
		"Session file: /tmp/session.json",
		"Forum host:   forum.example.com",
		"(2h0m0s ago)",
		"Cookies:      _t, _forum_session",
		"Expired:      _forum_session",
		"Status:       valid",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output:\n%s", want, got)
		}
	}
	if strings.Contains(got, "secret") {
		t.Error("cookie values must not be printed")
	}
}
