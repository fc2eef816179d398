package api

import (
	"kari/internal/corpus"
	"kari/internal/deps"
	"kari/internal/language"
	"kari/internal/playback"
	"kari/internal/timeline"
)

// FromSegment converts a corpus segment to its API representation.
func FromSegment(seg corpus.Segment) Segment {
	dto := Segment{
		ID:             seg.ID,
		Lang:           seg.Lang,
		RawText:        seg.RawText,
		TranslatedText: seg.TranslatedText,
		StartMs:        seg.StartMs,
		Start:          timeline.FormatTimestamp(seg.StartMs),
		MediaPath:      seg.MediaPath,
	}
	if !seg.CreatedAt.IsZero() {
		dto.CreatedAt = seg.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromSegments converts a slice of corpus segments.
func FromSegments(segs []corpus.Segment) []Segment {
	if len(segs) == 0 {
		return nil
	}
	out := make([]Segment, 0, len(segs))
	for _, seg := range segs {
		out = append(out, FromSegment(seg))
	}
	return out
}

// FromCue converts a playback cue.
func FromCue(c playback.Cue) Cue {
	return Cue{SegmentID: c.SegmentID, StartMs: c.StartMs, Overlay: playback.Overlay(c)}
}

// FromProfile converts a language profile.
func FromProfile(p language.Profile) LanguageInfo {
	return LanguageInfo{
		Key:                p.Key,
		Name:               p.Name,
		NativeName:         p.NativeName,
		RecognitionModelID: p.RecognitionModelID,
		Ethnonym:           p.Ethnonym,
	}
}

// FromDependencyStatuses converts dependency check results.
func FromDependencyStatuses(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, DependencyStatus{
			Name:        s.Name,
			Command:     s.Command,
			Description: s.Description,
			Optional:    s.Optional,
			Available:   s.Available,
			Detail:      s.Detail,
		})
	}
	return out
}
