package crawler

import (
	"errors"
	"fmt"
	"net/http"
)

// Decoding errors wrapped by ParseError.
var (
	// ErrMissingTopicList is returned when a listing page has no topic_list.topics array.
	ErrMissingTopicList = errors.New("response has no topic_list.topics")

	// ErrMissingPostStream is returned when a topic document has no post_stream.posts array.
	ErrMissingPostStream = errors.New("response has no post_stream.posts")

	// ErrMissingField is returned when a required field of a topic or post is absent.
	ErrMissingField = errors.New("required field is missing")

	// ErrInvalidTimestamp is returned when a timestamp matches no known layout.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// FetchError is a transport or HTTP status failure that survived all retries.
type FetchError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int

	// Attempts is the number of requests made, retries included.
	Attempts int

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements error.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Temporary reports whether the failure is worth retrying: transport errors,
// 429 Too Many Requests and 5xx statuses.
func (e *FetchError) Temporary() bool {
	if e.StatusCode == 0 {
		return e.Err != nil
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// ParseError reports a response whose JSON does not have the expected shape.
// It is never retried and never treated as an empty result.
type ParseError struct {
	// URL is the requested URL.
	URL string

	// Err describes what was wrong.
	Err error
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

// Unwrap returns the decoding error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
