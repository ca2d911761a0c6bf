// Package report writes crawl output.
//
// Records are written as a JSON array or as CSV with identical column
// names. Run summaries and run-to-run diffs are written as GitHub
// Flavored Markdown (with a mermaid pie chart) or as plain text for the
// terminal.
package report
