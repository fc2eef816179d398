// Package session holds the state of one review session over the corpus:
// the media snapshot under review, the edit buffer, autosave bookkeeping and
// playback state.
//
// The edit buffer is a read-through cache of the current text. Reconcile
// commits it to the store but never clears it, and every read that feeds a
// reviewer, a render or the playback overlay goes through Overlay so pending
// edits always win over stored values.
//
// Only one session may be open per corpus; New takes an exclusive file lock.
package session
