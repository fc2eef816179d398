package subtitles

import "fmt"

// Validate checks a document for structural problems. An empty result means
// the document is well formed.
func Validate(doc Document) []string {
	if len(doc.Entries) == 0 {
		return []string{"empty_subtitle_document"}
	}
	var issues []string
	var prevStart int64 = -1
	for i, e := range doc.Entries {
		if e.Index != i+1 {
			issues = append(issues, fmt.Sprintf("entry %d: index %d, expected %d", i+1, e.Index, i+1))
		}
		if e.StartMs < 0 {
			issues = append(issues, fmt.Sprintf("entry %d: negative start %d", e.Index, e.StartMs))
		}
		if e.EndMs < e.StartMs {
			issues = append(issues, fmt.Sprintf("entry %d: end %d before start %d", e.Index, e.EndMs, e.StartMs))
		}
		if e.StartMs < prevStart {
			issues = append(issues, fmt.Sprintf("entry %d: start %d precedes previous start %d", e.Index, e.StartMs, prevStart))
		}
		prevStart = e.StartMs
	}
	return issues
}
