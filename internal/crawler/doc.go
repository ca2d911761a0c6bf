// Package crawler reads the forum's JSON API.
//
// # Components
//
//   - Client.FetchAllTopics: walks the paginated category listing
//   - Client.FetchTopic: fetches one topic document with its post stream
//
// # Pagination
//
// Listing pages are requested strictly in sequence starting at page 0 and
// the walk ends at the first page whose topic list is empty. Each page is
// requested exactly once unless a transient failure triggers a retry.
//
// # Failures
//
// Transient failures (connection errors, 429, 5xx) are retried with bounded
// exponential backoff. What survives the retries is a *FetchError. A body
// that is not the expected JSON shape is a *ParseError and is never retried
// or mistaken for an empty page.
//
// Design decision: Decoding goes through unexported wire types that keep
// required fields as pointers. Absent fields are detected at the decode
// boundary so the rest of the program works with fully typed, immutable
// model values.
//
// # Usage
//
//	client, err := crawler.NewClient(httpClient, "https://forum.example.com",
//		crawler.WithCategory("courses/tds-kb", 34),
//		crawler.WithRateLimit(5, 5),
//	)
//	topics, err := client.FetchAllTopics(ctx)
package crawler
