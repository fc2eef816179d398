// Package services defines shared utilities consumed by the pipeline, the
// corpus store and the external backend clients.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, media paths, chunk indexes and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (external service, mux, not found) without string matching.
//
// Backend clients live in subpackages (gradio, openaiapi) and implement the
// recognition and translation capabilities consumed by the pipeline.
package services
