package logging

import (
	"context"
	"log/slog"

	"kari/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSessionID identifies the review session that issued an operation.
	FieldSessionID = "session_id"
	// FieldMediaPath identifies the media asset being processed.
	FieldMediaPath = "media_path"
	// FieldChunkIndex is the 1-based timeline window index.
	FieldChunkIndex = "chunk_index"
	// FieldCorrelationID groups the log lines of one operation.
	FieldCorrelationID = "correlation_id"
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.SessionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, id))
	}
	if path, ok := services.MediaPathFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldMediaPath, path))
	}
	if idx, ok := services.ChunkFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldChunkIndex, idx))
	}
	if rid, ok := services.CorrelationIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
