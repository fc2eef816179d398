// Package pipeline turns a recording into a bilingual subtitle document.
//
// Transcribe decodes the audio once, walks fixed timeline windows strictly in
// order, and for each window extracts a chunk, recognizes it, translates the
// text and commits a corpus segment before moving on. Windows whose
// recognized text is at most one character are skipped as silence. A window
// whose recognition or translation exhausts its retries stops the run with a
// *ChunkError; segments committed earlier in the run stay in the corpus.
// When every window has been processed the document is burned into a raw
// render of the media.
package pipeline
