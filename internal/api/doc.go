// Package api is the operation surface kari's presentation layers call. The
// CLI uses it directly; any other front end can do the same without reaching
// into the pipeline, corpus or session packages.
//
// # Key Types
//
// Service: opens the corpus, the recognition and translation backends and a
// review session from a config, and exposes the user-level operations:
// Transcribe, ListSegments, Edit, Save, Reconcile, RenderFinal, ExportSRT,
// ActiveAt, ClearCorpus, Stats, Languages and Doctor.
//
// Segment/SegmentPage: transport representation of corpus segments with
// pending edits already overlaid.
//
// PlaybackState: the overlay text and loop decision for a playback position.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps are RFC3339 with milliseconds and
// segment offsets are carried both as integer milliseconds and as SRT
// timestamps. The corpus driver and backend kind are chosen from config in
// OpenRepository and NewBackends.
package api
