// Command kari transcribes Formosan-language recordings into bilingual
// subtitles, keeps the results in a corpus for review, and burns the
// reviewed subtitles into the media with ffmpeg.
//
// Typical flow:
//
//	kari transcribe talk.mp4 --lang amis
//	kari segments --page 1
//	kari edit 12 --translated "corrected line"
//	kari render
package main
