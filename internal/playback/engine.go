// Package playback finds the subtitle cue to overlay at a playback position
// and implements single-segment loop playback.
//
// The engine never touches the corpus. Its cues carry whatever text the
// caller supplies, normally pending edits layered over stored values, so an
// edit shows up in the overlay without re-rendering the media.
package playback

import "strings"

// DefaultActiveWindowMs is how long after its start a cue stays active.
// It is deliberately longer than the 4400ms burned-in display window.
const DefaultActiveWindowMs int64 = 4500

// Cue is one overlay candidate.
type Cue struct {
	SegmentID      int64
	StartMs        int64
	RawText        string
	TranslatedText string
}

// Overlay renders the two text lines shown over the video.
func Overlay(c Cue) string {
	return strings.TrimSpace(c.RawText) + "\n" + strings.TrimSpace(c.TranslatedText)
}

// Engine tracks the cue list plus jump and loop state.
type Engine struct {
	cues     []Cue
	windowMs int64

	jumpTarget int64
	hasJump    bool
	loop       bool
}

// NewEngine builds an engine over cues in ascending start order. A
// non-positive windowMs selects DefaultActiveWindowMs.
func NewEngine(cues []Cue, windowMs int64) *Engine {
	if windowMs <= 0 {
		windowMs = DefaultActiveWindowMs
	}
	return &Engine{cues: cues, windowMs: windowMs}
}

// SetCues replaces the cue list while keeping jump and loop state.
func (e *Engine) SetCues(cues []Cue) {
	e.cues = cues
}

// Cues returns the current cue list.
func (e *Engine) Cues() []Cue {
	return e.cues
}

// ActiveSegment returns the first cue with start <= t <= start+window.
func (e *Engine) ActiveSegment(t int64) (Cue, bool) {
	for _, c := range e.cues {
		if c.StartMs <= t && t <= c.StartMs+e.windowMs {
			return c, true
		}
	}
	return Cue{}, false
}

// Jump records cue as the loop anchor and returns the exact seek position.
func (e *Engine) Jump(c Cue) int64 {
	e.jumpTarget = c.StartMs
	e.hasJump = true
	return e.jumpTarget
}

// JumpTo jumps to the cue for segmentID.
func (e *Engine) JumpTo(segmentID int64) (int64, bool) {
	for _, c := range e.cues {
		if c.SegmentID == segmentID {
			return e.Jump(c), true
		}
	}
	return 0, false
}

// JumpTarget returns the last jump position, if any.
func (e *Engine) JumpTarget() (int64, bool) {
	return e.jumpTarget, e.hasJump
}

// SetLoop enables or disables looping of the jumped-to segment.
func (e *Engine) SetLoop(enabled bool) {
	e.loop = enabled
}

// Looping reports whether loop mode is on.
func (e *Engine) Looping() bool {
	return e.loop
}

// Tick reports where playback should be at time t. With loop mode on and a
// jump target set, reaching target+window rewinds to the target.
func (e *Engine) Tick(t int64) (int64, bool) {
	if e.loop && e.hasJump && t >= e.jumpTarget+e.windowMs {
		return e.jumpTarget, true
	}
	return t, false
}
