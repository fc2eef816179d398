package services

import "context"

type contextKey string

const (
	sessionIDKey     contextKey = "session_id"
	mediaPathKey     contextKey = "media_path"
	chunkKey         contextKey = "chunk_index"
	correlationIDKey contextKey = "correlation_id"
)

// WithSessionID annotates context with the review session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithMediaPath annotates context with the media asset being processed.
func WithMediaPath(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, mediaPathKey, path)
}

// MediaPathFromContext returns the media path if present.
func MediaPathFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(mediaPathKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithChunk annotates context with the 1-based timeline window index.
func WithChunk(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, chunkKey, index)
}

// ChunkFromContext returns the timeline window index if present.
func ChunkFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(chunkKey).(int)
	return v, ok
}

// WithCorrelationID tags context with the id of one user-facing operation
// (a transcription run, a render, a save) so its log lines can be grouped
// within a session.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext extracts the operation id if present.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(correlationIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
