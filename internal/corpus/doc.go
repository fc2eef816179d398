// Package corpus persists transcript segments: the recognized text of one
// timeline window, its translation, its start offset and the media it came
// from.
//
// Repository is the storage contract shared by the embedded SQLite store in
// this package and the PostgreSQL store in corpus/pgstore. Both assign
// monotonically increasing ids, order a media's segments by start offset, and
// offer Snapshot, which reads the most recently created media and its
// segments inside one read transaction so the pair is always consistent.
//
// The SQLite store follows the same conventions as the rest of kari's
// persistence: WAL journaling, bounded retries when the database is busy, an
// embedded schema and a schema_version table checked on open.
package corpus
