// Package media decodes recordings into a single mono 16 kHz WAV, measures
// their duration and extracts per-window audio clips for recognition.
//
// Decoder runs ffmpeg once per recording. The resulting AudioSource hands out
// one scratch clip at a time through WithChunk, which removes the clip before
// returning whether or not the callback failed. Library copies uploaded media
// into the data directory so corpus rows keep pointing at a stable path.
//
// All process execution goes through an injectable CommandRunner and
// ffprobe.OutputRunner, so tests never need real binaries.
package media
