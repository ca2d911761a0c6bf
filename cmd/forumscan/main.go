// Package main provides the entry point for the forumscan CLI.
//
// forumscan crawls one category of a Discourse forum as a logged-in user
// and writes every post of the topics created inside a date window as
// structured records (JSON and CSV), classified and linked to the
// posts they answer.
//
// Usage:
//
//	forumscan login
//	forumscan crawl --from 2025-01-01 --to 2025-04-14
//	forumscan history
//
// See --help for all available options.
package main

// main is the entry point for forumscan.
func main() {
	Execute()
}
