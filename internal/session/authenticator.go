package session

import (
	"context"
	"errors"

	"github.com/nao1215/forumscan/internal/model"
)

// Authenticator obtains a new session, typically with human help.
type Authenticator interface {
	Authenticate(ctx context.Context) (*model.Session, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context) (*model.Session, error)

// Authenticate implements Authenticator.
func (f AuthenticatorFunc) Authenticate(ctx context.Context) (*model.Session, error) {
	return f(ctx)
}

// StaticAuthenticator returns a fixed session, for example one built from
// a cookie exported by hand.
type StaticAuthenticator struct {
	Session *model.Session
}

// Authenticate implements Authenticator.
func (s StaticAuthenticator) Authenticate(ctx context.Context) (*model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Session == nil || len(s.Session.Cookies) == 0 {
		return nil, errors.New("static authenticator has no cookies")
	}
	copied := *s.Session
	copied.Cookies = append([]model.Cookie(nil), s.Session.Cookies...)
	return &copied, nil
}
