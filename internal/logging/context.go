package logging

import (
	"context"
	"log/slog"

	"lectern/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSessionKey is the standardized structured logging key for session identifiers.
	FieldSessionKey = "session_key"
	// FieldRoom is the standardized structured logging key for room instance identifiers.
	FieldRoom = "room"
	// FieldJobID is the standardized structured logging key for egress job identifiers.
	FieldJobID = "job_id"
	// FieldLanguage is the standardized structured logging key for session language attributes.
	FieldLanguage = "language"
	// FieldPhase is the standardized structured logging key for egress job phases.
	FieldPhase = "phase"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if key, ok := services.SessionKeyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionKey, key))
	}
	if room, ok := services.RoomFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRoom, room))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
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
	return logger.With(attrsToArgs(fields)...)
}
