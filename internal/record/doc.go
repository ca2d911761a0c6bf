// Package record merges topic metadata, reply aggregates, post fields and
// classifier output into the flat model.Record emitted for every post.
package record
