package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/store"
)

// Resolver creates or finds the canonical session row for a live room
// instance. All session creation flows through here so the one-row-per-key
// invariant is enforced in a single place.
type Resolver struct {
	store  *store.Store
	logger *slog.Logger
}

// NewResolver builds a resolver backed by the given store.
func NewResolver(st *store.Store, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  st,
		logger: logging.NewComponentLogger(logger, "session"),
	}
}

// Resolve returns the session for sessionKey, creating it when absent.
// Concurrent callers racing on the same key all converge on the winner's row;
// a losing writer re-reads instead of surfacing the constraint violation.
// Callers cannot distinguish creation from lookup from the return value.
func (r *Resolver) Resolve(ctx context.Context, sessionKey, roomName, language string) (*store.Session, error) {
	sessionKey = strings.TrimSpace(sessionKey)
	roomName = strings.TrimSpace(roomName)
	if sessionKey == "" {
		return nil, services.Wrap(services.ErrValidation, "session", "resolve", "session key is required", nil)
	}
	if roomName == "" {
		return nil, services.Wrap(services.ErrValidation, "session", "resolve", "room name is required", nil)
	}

	existing, err := r.store.SessionByKey(ctx, sessionKey)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "session", "resolve", "read session", err)
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	created, err := r.store.InsertSession(ctx, &store.Session{
		SessionKey: sessionKey,
		DisplayID:  DeriveDisplayID(roomName, now),
		RoomName:   roomName,
		Language:   language,
		StartedAt:  now,
	})
	if err == nil {
		r.logger.Info("session created",
			logging.String(logging.FieldSessionKey, sessionKey),
			logging.String(logging.FieldRoom, roomName))
		return created, nil
	}
	if !errors.Is(err, store.ErrDuplicate) {
		return nil, services.Wrap(services.ErrTransient, "session", "resolve", "insert session", err)
	}

	// Lost the insert race; the winner's row must exist now.
	winner, err := r.store.SessionByKey(ctx, sessionKey)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "session", "resolve", "re-read session after duplicate", err)
	}
	if winner == nil {
		return nil, services.Wrap(services.ErrTransient, "session", "resolve", "session vanished after duplicate insert", nil)
	}
	return winner, nil
}

// End stamps ended_at on an open session. Ending an unknown session key is
// reported as not found so callers can distinguish it from an already-ended
// session, which is an ordinary success.
func (r *Resolver) End(ctx context.Context, sessionKey string) (*store.Session, error) {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return nil, services.Wrap(services.ErrValidation, "session", "end", "session key is required", nil)
	}

	session, err := r.store.SessionByKey(ctx, sessionKey)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "session", "end", "read session", err)
	}
	if session == nil {
		return nil, services.Wrap(services.ErrNotFound, "session", "end", "unknown session "+sessionKey, nil)
	}

	closed, err := r.store.EndSession(ctx, sessionKey, time.Now().UTC())
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "session", "end", "end session", err)
	}
	if closed {
		r.logger.Info("session ended", logging.String(logging.FieldSessionKey, sessionKey))
	}

	return r.store.SessionByKey(ctx, sessionKey)
}

// List returns recent sessions, newest first.
func (r *Resolver) List(ctx context.Context, limit int) ([]*store.Session, error) {
	sessions, err := r.store.ListSessions(ctx, limit)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "session", "list", "list sessions", err)
	}
	return sessions, nil
}
