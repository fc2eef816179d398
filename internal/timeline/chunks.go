package timeline

import "iter"

// DefaultWindowMs is the recognition window length.
const DefaultWindowMs int64 = 4500

// Window is one contiguous slice of the timeline. StartMs is inclusive and
// EndMs exclusive. Index is 1-based.
type Window struct {
	Index   int
	StartMs int64
	EndMs   int64
}

// DurationMs returns the window length.
func (w Window) DurationMs() int64 {
	return w.EndMs - w.StartMs
}

// BuildChunks yields non-overlapping windows covering [0, durationMs). The
// final window is truncated to the duration. The sequence is lazy and may be
// ranged over more than once.
func BuildChunks(durationMs, windowMs int64) iter.Seq[Window] {
	if windowMs <= 0 {
		windowMs = DefaultWindowMs
	}
	return func(yield func(Window) bool) {
		index := 1
		for start := int64(0); start < durationMs; start += windowMs {
			end := min(start+windowMs, durationMs)
			if !yield(Window{Index: index, StartMs: start, EndMs: end}) {
				return
			}
			index++
		}
	}
}

// CountChunks returns how many windows BuildChunks yields.
func CountChunks(durationMs, windowMs int64) int {
	if durationMs <= 0 {
		return 0
	}
	if windowMs <= 0 {
		windowMs = DefaultWindowMs
	}
	return int((durationMs + windowMs - 1) / windowMs)
}
