package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"lectern/internal/config"
	"lectern/internal/egress"
	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/session"
	"lectern/internal/store"
)

// Manager starts and stops backend capture jobs and owns the recording rows
// that track them.
type Manager struct {
	cfg      *config.Config
	store    *store.Store
	resolver *session.Resolver
	router   *egress.Router
	logger   *slog.Logger
}

// NewManager wires the lifecycle manager.
func NewManager(cfg *config.Config, st *store.Store, resolver *session.Resolver, router *egress.Router, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		store:    st,
		resolver: resolver,
		router:   router,
		logger:   logging.NewComponentLogger(logger, "recording"),
	}
}

// StartRequest describes a start-recording call.
type StartRequest struct {
	RoomInstanceID string
	RoomName       string
	Language       string
	RequestedBy    string
	ClassroomID    string
}

// Start begins a capture job for a room instance. The at-most-one-active
// invariant is enforced against the backend's live job list, not the local
// rows, since the local datastore can lag behind callbacks.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*store.Recording, error) {
	req.RoomInstanceID = strings.TrimSpace(req.RoomInstanceID)
	req.RoomName = strings.TrimSpace(req.RoomName)
	if req.RoomInstanceID == "" {
		return nil, services.Wrap(services.ErrValidation, "recording", "start", "room instance id is required", nil)
	}
	if req.RoomName == "" {
		return nil, services.Wrap(services.ErrValidation, "recording", "start", "room name is required", nil)
	}

	client, err := m.router.ClientFor(req.Language)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "recording", "start", "build backend client", err)
	}

	jobs, err := client.ListJobs(ctx, req.RoomName)
	if err != nil {
		return nil, err
	}
	for _, job := range jobs {
		if !job.Status.Phase().IsTerminal() {
			return nil, services.Wrap(services.ErrConflict, "recording", "start", "recording already in progress", nil)
		}
	}

	sess, err := m.resolver.Resolve(ctx, req.RoomInstanceID, req.RoomName, req.Language)
	if err != nil {
		return nil, err
	}

	prefix := m.cfg.Recording.OutputPrefixDir + "/" + sess.DisplayID
	requestID := uuid.NewString()
	info, err := client.StartJob(ctx, egress.StartJobRequest{
		RoomName:  req.RoomName,
		Layout:    m.cfg.Recording.Layout,
		RequestID: requestID,
		Segments: &egress.SegmentedOutput{
			PlaylistName:    prefix + "/" + m.cfg.Recording.PlaylistName,
			FilenamePrefix:  prefix + "/segment",
			SegmentDuration: m.cfg.Recording.SegmentSeconds,
		},
		File: &egress.FileOutput{
			Filepath: prefix + "/" + m.cfg.Recording.FileName,
		},
	})
	if err != nil {
		return nil, err
	}
	if info == nil || strings.TrimSpace(info.EgressID) == "" {
		return nil, services.Wrap(services.ErrUpstream, "recording", "start", "backend returned no job id", nil)
	}

	inserted, err := m.store.InsertRecording(ctx, &store.Recording{
		ExternalJobID:    info.EgressID,
		SessionKey:       sess.SessionKey,
		RoomName:         req.RoomName,
		DisplaySessionID: sess.DisplayID,
		Status:           store.StatusActive,
		RequestedBy:      req.RequestedBy,
		ClassroomID:      req.ClassroomID,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, services.Wrap(services.ErrConflict, "recording", "start",
				fmt.Sprintf("job %s already tracked", info.EgressID), nil)
		}
		return nil, services.Wrap(services.ErrTransient, "recording", "start", "insert recording", err)
	}

	m.logger.Info("recording started",
		logging.String(logging.FieldJobID, inserted.ExternalJobID),
		logging.String(logging.FieldSessionKey, inserted.SessionKey),
		logging.String(logging.FieldRoom, inserted.RoomName),
		logging.String(logging.FieldCorrelationID, requestID))

	return inserted, nil
}

// Stop requests termination of every non-terminal backend job for a room.
// When the backend reports no active job the call fails with not found so
// callers can tell "already stopped" from "stopped now". An unreachable
// backend surfaces upstream failure and leaves the local rows active; a later
// callback or manual intervention reconciles them.
func (m *Manager) Stop(ctx context.Context, roomName, language string) error {
	roomName = strings.TrimSpace(roomName)
	if roomName == "" {
		return services.Wrap(services.ErrValidation, "recording", "stop", "room name is required", nil)
	}

	client, err := m.router.ClientFor(language)
	if err != nil {
		return services.Wrap(services.ErrUpstream, "recording", "stop", "build backend client", err)
	}

	jobs, err := client.ListJobs(ctx, roomName)
	if err != nil {
		return err
	}

	var stopped int
	for _, job := range jobs {
		if job.Status.Phase().IsTerminal() {
			continue
		}
		if _, err := client.StopJob(ctx, job.EgressID); err != nil {
			return err
		}
		stopped++
		m.logger.Info("recording stop requested",
			logging.String(logging.FieldJobID, job.EgressID),
			logging.String(logging.FieldRoom, roomName))
	}

	if stopped == 0 {
		return services.Wrap(services.ErrNotFound, "recording", "stop", "no active recording for "+roomName, nil)
	}
	return nil
}

// List returns recordings, optionally filtered by session key.
func (m *Manager) List(ctx context.Context, sessionKey string, limit int) ([]*store.Recording, error) {
	recordings, err := m.store.ListRecordings(ctx, strings.TrimSpace(sessionKey), limit)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "recording", "list", "list recordings", err)
	}
	return recordings, nil
}
