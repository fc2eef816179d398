package subtitles

import (
	"kari/internal/corpus"
)

// FinalDisplayMs is how long each entry of a reviewed document stays on screen.
const FinalDisplayMs int64 = 4400

// Entry is one subtitle cue. Index is 1-based and contiguous.
type Entry struct {
	Index          int
	StartMs        int64
	EndMs          int64
	RawText        string
	TranslatedText string
}

// Document is an ordered list of entries.
type Document struct {
	Entries []Entry
}

// Append adds an entry with the next index.
func (d *Document) Append(startMs, endMs int64, raw, translated string) Entry {
	entry := Entry{
		Index:          len(d.Entries) + 1,
		StartMs:        startMs,
		EndMs:          endMs,
		RawText:        raw,
		TranslatedText: translated,
	}
	d.Entries = append(d.Entries, entry)
	return entry
}

// Len returns the number of entries.
func (d Document) Len() int { return len(d.Entries) }

// OverlayFunc returns the text to show for a segment, typically pending
// edits layered over the stored values.
type OverlayFunc func(seg corpus.Segment) (raw, translated string)

// FromSegments builds a document with one entry per segment, each spanning
// [StartMs, StartMs+displayMs]. A nil overlay uses the stored text.
func FromSegments(segments []corpus.Segment, overlay OverlayFunc, displayMs int64) Document {
	if displayMs <= 0 {
		displayMs = FinalDisplayMs
	}
	doc := Document{Entries: make([]Entry, 0, len(segments))}
	for _, seg := range segments {
		raw, translated := seg.RawText, seg.TranslatedText
		if overlay != nil {
			raw, translated = overlay(seg)
		}
		doc.Append(seg.StartMs, seg.StartMs+displayMs, raw, translated)
	}
	return doc
}
