// Package database provides SQLite-based storage for forumscan.
//
// The CrawlDB stores:
//   - Crawl runs with their window and topic/record counts
//   - The ordered records of every run, for later comparison
//   - The fingerprint index used to emit only previously unseen records
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the whole
// history is a single local file and the pure-Go driver needs no CGO.
package database
