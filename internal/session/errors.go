package session

import (
	"errors"
	"fmt"
)

// Session errors.
var (
	// ErrNoSession is returned by a Store that holds no session.
	ErrNoSession = errors.New("no stored session")

	// ErrSessionInvalid is returned when a freshly bootstrapped session fails validation.
	ErrSessionInvalid = errors.New("session rejected by the forum")

	// ErrLoginTimeout is returned when the human did not finish logging in in time.
	ErrLoginTimeout = errors.New("login was not completed before the timeout")

	// ErrNoCookies is returned when the browser holds no cookies for the forum after login.
	ErrNoCookies = errors.New("browser has no cookies for the forum")
)

// AuthError reports that no valid session could be obtained.
type AuthError struct {
	// Op is the failing stage: "bootstrap", "persist" or "validate".
	Op string

	// Err is the cause.
	Err error
}

// Error implements error.
func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed during %s: %v", e.Op, e.Err)
}

// Unwrap returns the cause.
func (e *AuthError) Unwrap() error {
	return e.Err
}
