package transport

import (
	"errors"
	"testing"
	"time"
)

// TestNewEmbeddedTor tests EmbeddedTor construction without starting Tor.
func TestNewEmbeddedTor(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		e := NewEmbeddedTor()
		if e.startupTimeout != DefaultTorStartupTimeout {
			t.Errorf("expected default timeout, got %v", e.startupTimeout)
		}
		if e.IsRunning() || e.SocksAddr() != "" || e.ControlAddr() != "" {
			t.Error("expected stopped daemon")
		}
	})

	t.Run("custom timeout", func(t *testing.T) {
		t.Parallel()

		e := NewEmbeddedTor(WithStartupTimeout(time.Minute))
		if e.startupTimeout != time.Minute {
			t.Errorf("expected 1m, got %v", e.startupTimeout)
		}
	})

	t.Run("stop before start is a no-op", func(t *testing.T) {
		t.Parallel()

		if err := NewEmbeddedTor().Stop(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("proxy option requires a running daemon", func(t *testing.T) {
		t.Parallel()

		if _, err := NewEmbeddedTor().ProxyOption(); !errors.Is(err, ErrEmbeddedTorNotRunning) {
			t.Errorf("expected ErrEmbeddedTorNotRunning, got %v", err)
		}
	})
}
