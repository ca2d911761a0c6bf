// Package dedup filters records whose content fingerprint was already
// emitted by an earlier run.
//
// Two Index implementations exist: the SQLite table of the run database
// (database.FingerprintIndex) for single-machine use, and RedisIndex for a
// fingerprint set shared by several machines or checkouts.
package dedup
