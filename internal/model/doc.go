// Package model defines the core data structures used throughout forumscan.
//
// This package contains the following main types:
//   - Session: Authenticated browser state captured by the login bootstrap
//   - TopicSummary, TopicMeta, Post: Decoded forum API payloads
//   - Record: The flat, classified output row (one per post)
//   - TopicJob: A per-topic work item flowing through the pipeline
//   - CrawlRun, RecordDiff: Run history and change detection between runs
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, pipeline, record, report and database packages
// all exchange these types, so centralizing them prevents import cycles.
//
// API payload types are immutable once decoded. Records are serializable to
// JSON, CSV and the run database with identical field names.
package model
