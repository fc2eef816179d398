package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Segment is a corpus segment in a transport-friendly format.
type Segment struct {
	ID             int64  `json:"id"`
	Lang           string `json:"lang"`
	RawText        string `json:"rawText"`
	TranslatedText string `json:"translatedText"`
	StartMs        int64  `json:"startMs"`
	Start          string `json:"start"`
	MediaPath      string `json:"mediaPath"`
	CreatedAt      string `json:"createdAt,omitempty"`
	Edited         bool   `json:"edited"`
}

// SegmentPage is one page of the media under review.
type SegmentPage struct {
	MediaPath  string    `json:"mediaPath"`
	Lang       string    `json:"lang"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
	Pending    int       `json:"pendingEdits"`
	Segments   []Segment `json:"segments"`
}

// TranscribeResult summarizes a pipeline run.
type TranscribeResult struct {
	MediaPath  string    `json:"mediaPath"`
	Lang       string    `json:"lang"`
	OutputPath string    `json:"outputPath,omitempty"`
	DurationMs int64     `json:"durationMs"`
	Skipped    int       `json:"skippedWindows"`
	Segments   []Segment `json:"segments"`
	SRT        string    `json:"srt"`
}

// Cue is a playback overlay candidate.
type Cue struct {
	SegmentID int64  `json:"segmentId"`
	StartMs   int64  `json:"startMs"`
	Overlay   string `json:"overlay"`
}

// PlaybackState is the answer to a playback tick.
type PlaybackState struct {
	PositionMs   int64  `json:"positionMs"`
	Reset        bool   `json:"reset"`
	Looping      bool   `json:"looping"`
	JumpTargetMs *int64 `json:"jumpTargetMs,omitempty"`
	Active       *Cue   `json:"active,omitempty"`
}

// LanguageInfo describes a supported source language.
type LanguageInfo struct {
	Key                string `json:"key"`
	Name               string `json:"name"`
	NativeName         string `json:"nativeName"`
	RecognitionModelID string `json:"recognitionModelId"`
	Ethnonym           string `json:"ethnonym"`
}

// CorpusStats summarizes corpus contents.
type CorpusStats struct {
	Segments    int64  `json:"segments"`
	Media       int64  `json:"media"`
	LatestMedia string `json:"latestMedia,omitempty"`
	Driver      string `json:"driver"`
}

// DependencyStatus reports an external binary's availability.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}
