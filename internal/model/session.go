package model

import (
	"strings"
	"time"
)

// Cookie is a single browser cookie captured during login.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure"`
	HTTPOnly bool      `json:"http_only"`
}

// MatchesHost reports whether the cookie would be sent to host.
// A leading dot on the domain, or an empty domain, matches subdomains too.
func (c Cookie) MatchesHost(host string) bool {
	domain := strings.TrimPrefix(strings.ToLower(c.Domain), ".")
	host = strings.ToLower(host)
	if domain == "" || domain == host {
		return true
	}
	return strings.HasSuffix(host, "."+domain)
}

// Expired reports whether the cookie has an expiry that lies before now.
// Session cookies (zero expiry) never expire here.
func (c Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && c.Expires.Before(now)
}

// Session is the persisted authenticated state of the forum.
//
// Design decision: A session is only produced by the login bootstrap and
// only judged by validation. During a crawl it is read-only: requests
// render the Cookie header from it instead of sharing a mutable cookie jar,
// so concurrent topic fetches never race on session state.
type Session struct {
	// Cookies are the browser cookies captured after login.
	Cookies []Cookie `json:"cookies"`

	// CreatedAt is when the bootstrap captured the cookies.
	CreatedAt time.Time `json:"created_at"`

	// Valid is set by the session manager after a successful validation.
	// It is never persisted.
	Valid bool `json:"-"`
}

// CookieHeader renders the Cookie request header for host, skipping
// cookies scoped to other domains and cookies that already expired.
func (s *Session) CookieHeader(host string, now time.Time) string {
	if s == nil {
		return ""
	}
	parts := make([]string, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		if c.Name == "" || !c.MatchesHost(host) || c.Expired(now) {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// CookieNames returns the names of the stored cookies, for logging.
func (s *Session) CookieNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		names = append(names, c.Name)
	}
	return names
}
