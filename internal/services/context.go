package services

import "context"

type contextKey string

const (
	sessionKeyKey contextKey = "session_key"
	roomKey       contextKey = "room"
	requestIDKey  contextKey = "request_id"
)

// WithSessionKey annotates context with the session identifier.
func WithSessionKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKeyKey, key)
}

// SessionKeyFromContext extracts the session identifier if present.
func SessionKeyFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionKeyKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRoom annotates context with the room instance identifier.
func WithRoom(ctx context.Context, room string) context.Context {
	if room == "" {
		return ctx
	}
	return context.WithValue(ctx, roomKey, room)
}

// RoomFromContext returns the room instance identifier if present.
func RoomFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(roomKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
