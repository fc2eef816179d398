package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"kari/internal/fileutil"
	"kari/internal/timeline"
)

// Format renders the document as SRT.
func (d Document) Format() string {
	blocks := make([]string, 0, len(d.Entries))
	for _, e := range d.Entries {
		blocks = append(blocks, formatEntry(e))
	}
	return strings.Join(blocks, "\n")
}

func formatEntry(e Entry) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(e.Index))
	b.WriteByte('\n')
	b.WriteString(timeline.FormatTimestamp(e.StartMs))
	b.WriteString(" --> ")
	b.WriteString(timeline.FormatTimestamp(e.EndMs))
	b.WriteByte('\n')
	b.WriteString(e.RawText)
	b.WriteByte('\n')
	b.WriteString(e.TranslatedText)
	b.WriteByte('\n')
	return b.String()
}

// WriteFile writes the SRT rendering to path, replacing any existing file
// atomically.
func (d Document) WriteFile(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(d.Format()), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// ReadFile parses the SRT file at path.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("read srt: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads SRT content. Blocks are separated by blank lines; the first
// text line is the source text and any further lines form the translation.
func Parse(r io.Reader) (Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		doc   Document
		block []string
		line  int
	)
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		entry, err := parseBlock(block)
		if err != nil {
			return fmt.Errorf("srt block ending at line %d: %w", line, err)
		}
		doc.Entries = append(doc.Entries, entry)
		block = block[:0]
		return nil
	}

	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		if strings.TrimSpace(text) == "" {
			if err := flush(); err != nil {
				return Document{}, err
			}
			continue
		}
		block = append(block, text)
	}
	if err := scanner.Err(); err != nil {
		return Document{}, fmt.Errorf("scan srt: %w", err)
	}
	if err := flush(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func parseBlock(lines []string) (Entry, error) {
	if len(lines) < 2 {
		return Entry{}, fmt.Errorf("expected index and timing lines, got %d line(s)", len(lines))
	}
	index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid index %q", lines[0])
	}
	parts := strings.Split(lines[1], "-->")
	if len(parts) != 2 {
		return Entry{}, fmt.Errorf("invalid timing line %q", lines[1])
	}
	start, err := timeline.ParseTimestamp(parts[0])
	if err != nil {
		return Entry{}, err
	}
	end, err := timeline.ParseTimestamp(parts[1])
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{Index: index, StartMs: start, EndMs: end}
	text := lines[2:]
	if len(text) > 0 {
		entry.RawText = text[0]
	}
	if len(text) > 1 {
		entry.TranslatedText = strings.Join(text[1:], "\n")
	}
	return entry, nil
}
