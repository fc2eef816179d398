package session

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Field selects one of a segment's two text columns.
type Field int

const (
	FieldRaw Field = iota
	FieldTranslated
)

func (f Field) String() string {
	switch f {
	case FieldRaw:
		return "raw"
	case FieldTranslated:
		return "translated"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// ParseField accepts "raw" or "translated".
func ParseField(value string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "raw":
		return FieldRaw, nil
	case "translated", "translation":
		return FieldTranslated, nil
	default:
		return 0, fmt.Errorf("unknown field %q", value)
	}
}

// ErrEmptyEdit rejects edits that would leave a blank subtitle line.
var ErrEmptyEdit = errors.New("edit text is empty")

// CleanEdit prepares edited text for an SRT block. Blank lines end a block,
// so they are dropped, and recognized text is the block's first line, so
// raw edits are folded onto one line. Translations keep their line breaks.
func CleanEdit(field Field, text string) (string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "", ErrEmptyEdit
	}
	if field == FieldRaw {
		return strings.Join(lines, " "), nil
	}
	return strings.Join(lines, "\n"), nil
}

// EditKey identifies one buffered edit.
type EditKey struct {
	SegmentID int64
	Field     Field
}

func compareKeys(a, b EditKey) int {
	if c := cmp.Compare(a.SegmentID, b.SegmentID); c != 0 {
		return c
	}
	return cmp.Compare(a.Field, b.Field)
}

// sortedKeys returns buffer keys in (segment id, field) order.
func sortedKeys(buffer map[EditKey]string) []EditKey {
	keys := make([]EditKey, 0, len(buffer))
	for k := range buffer {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}
