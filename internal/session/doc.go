// Package session owns the authenticated forum session: loading it from
// disk, proving it still works, and replacing it through an interactive
// login when it does not.
//
// # Lifecycle
//
// EnsureSession loads the persisted session and validates it with one
// request to the category listing. A missing or rejected session triggers
// the Authenticator (a visible browser in which a human logs in), the new
// session is persisted, validated again and returned. Authentication
// problems with the stored session are logged, never returned; only a
// failed bootstrap surfaces as an *AuthError.
//
// Design decision: Validation is a single request with its own short
// timeout instead of a retried fetch. A slow or failing forum makes the
// session look invalid and leads to a fresh login, which is the safe
// direction for an interactive tool.
package session
