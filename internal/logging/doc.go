// Package logging assembles structured slog loggers and formatting helpers used
// across kari.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline and session code can tag log
// lines with session IDs, media paths and chunk indexes. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
