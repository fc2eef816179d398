// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs the real binary; InspectWith accepts an OutputRunner so callers
// and tests can substitute the process execution. Result exposes the container
// duration in seconds and in whole milliseconds, which the timeline uses to
// size recognition windows.
package ffprobe
