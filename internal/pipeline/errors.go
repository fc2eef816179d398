package pipeline

import (
	"fmt"

	"kari/internal/timeline"
)

// Stage names the external call that failed for a window.
type Stage string

const (
	StageRecognize Stage = "recognize"
	StageTranslate Stage = "translate"
)

// ChunkError reports the window that stopped a run. It unwraps to the
// retry error, which carries services.ErrExternalService.
type ChunkError struct {
	Window timeline.Window
	Stage  Stage
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d [%s --> %s] %s: %v",
		e.Window.Index,
		timeline.FormatTimestamp(e.Window.StartMs),
		timeline.FormatTimestamp(e.Window.EndMs),
		e.Stage,
		e.Err,
	)
}

func (e *ChunkError) Unwrap() error { return e.Err }
