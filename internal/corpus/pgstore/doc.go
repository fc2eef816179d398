// Package pgstore implements corpus.Repository on PostgreSQL through pgx.
//
// It mirrors the sqlite store's semantics: ids come from a BIGSERIAL column,
// segments of one media are ordered by start offset then id, and Snapshot
// reads the latest media together with its segments in a single
// repeatable-read, read-only transaction.
package pgstore
