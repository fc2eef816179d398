// Package subtitles models the bilingual subtitle document kari produces and
// reads and writes it as SRT.
//
// Every entry carries two text lines: the recognized source-language text and
// its Traditional Chinese translation. Format emits blocks separated by one
// blank line with a single trailing newline, and Parse reads that layout
// back, treating the first text line of a block as the source text and any
// remaining lines as the translation.
package subtitles
