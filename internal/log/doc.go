// Package log provides the forumscan logger: an slog handler that masks
// forum credentials before anything reaches the output.
//
// A crawl handles a live forum login. The session cookies (_t and
// _forum_session), the Cookie header built from them, and any CSRF token
// are equivalent to the user's password for as long as the session lives,
// and verbose logs are routinely pasted into bug reports. SecureHandler
// therefore masks:
//   - attributes whose key names a credential (cookie, authorization,
//     session, token, password, csrf and the forum cookie names)
//   - cookie pairs for known session cookies embedded in any string value,
//     such as an error message that quotes a request header
//   - values shaped like bearer tokens or JWTs
//
// Masking applies in verbose mode too.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("validating session", "cookie", "_t=abc; theme=dark")
//	// cookie=***REDACTED***
//
//	logger.Warn("request failed", "err", err)
//	// "... Cookie: _t=***REDACTED*** ..."
package log
