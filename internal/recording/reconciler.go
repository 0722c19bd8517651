package recording

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"lectern/internal/egress"
	"lectern/internal/logging"
	"lectern/internal/mediaurl"
	"lectern/internal/services"
	"lectern/internal/store"
)

// Reconciler consumes backend callbacks and advances recording state.
//
// Callbacks arrive unordered, possibly duplicated, possibly delayed; every
// handling path is idempotent and the terminal states are absorbing. The only
// errors surfaced are datastore write failures, so the backend's retry
// mechanism can redeliver the callback.
type Reconciler struct {
	store      *store.Store
	normalizer *mediaurl.Normalizer
	logger     *slog.Logger
}

// NewReconciler wires the callback state machine.
func NewReconciler(st *store.Store, normalizer *mediaurl.Normalizer, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:      st,
		normalizer: normalizer,
		logger:     logging.NewComponentLogger(logger, "reconciler"),
	}
}

// HandleEvent processes one inbound backend notification.
func (r *Reconciler) HandleEvent(ctx context.Context, event *egress.WebhookEvent) error {
	if event == nil || event.EgressInfo == nil {
		r.logger.Debug("callback without job info ignored")
		return nil
	}
	info := event.EgressInfo

	recording, err := r.store.RecordingByJobID(ctx, info.EgressID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "reconciler", "handle event", "read recording", err)
	}
	if recording == nil {
		// The backend notifies about jobs this system did not create,
		// e.g. ad-hoc rooms. Expected and non-fatal.
		r.logger.Info("callback for unknown job ignored",
			logging.String(logging.FieldJobID, info.EgressID),
			logging.String(logging.FieldRoom, info.RoomName))
		return nil
	}

	switch info.Status.Phase() {
	case egress.PhaseStarting, egress.PhaseActive:
		// Nothing to persist; the row is already active.
		return nil
	case egress.PhaseEnding, egress.PhaseComplete, egress.PhaseLimitReached:
		return r.complete(ctx, recording, info)
	case egress.PhaseFailed, egress.PhaseAborted:
		return r.fail(ctx, recording, info)
	default:
		r.logger.Warn("callback with unrecognized phase ignored",
			logging.String(logging.FieldJobID, info.EgressID),
			logging.Any("status", info.Status))
		return nil
	}
}

func (r *Reconciler) complete(ctx context.Context, recording *store.Recording, info *egress.EgressInfo) error {
	playlistURL, downloadURL := r.classifyOutputs(info)

	endedAt, ok := info.EndedTime()
	if !ok {
		endedAt = time.Now().UTC()
	}

	duration, ok := info.DurationSeconds()
	if !ok {
		// Fallback only when the backend omitted the primary value.
		duration = int64(endedAt.Sub(recording.StartedAt).Round(time.Second) / time.Second)
	}

	size := info.TotalSize()
	patch := store.RecordingPatch{
		PlaylistURL:     playlistURL,
		DownloadURL:     downloadURL,
		DurationSeconds: &duration,
		EndedAt:         &endedAt,
	}
	if size > 0 {
		patch.SizeBytes = &size
	}

	updated, err := r.store.CompleteRecording(ctx, recording.ExternalJobID, patch)
	if err != nil {
		return services.Wrap(services.ErrTransient, "reconciler", "complete", "update recording", err)
	}
	if !updated {
		r.logger.Warn("stale callback for terminal recording ignored",
			logging.String(logging.FieldJobID, recording.ExternalJobID),
			logging.String("stored_status", string(recording.Status)))
		return nil
	}

	r.logger.Info("recording completed",
		logging.String(logging.FieldJobID, recording.ExternalJobID),
		logging.String(logging.FieldSessionKey, recording.SessionKey),
		logging.Int64("duration_seconds", duration),
		logging.Int64("size_bytes", size))
	return nil
}

func (r *Reconciler) fail(ctx context.Context, recording *store.Recording, info *egress.EgressInfo) error {
	patch := store.RecordingPatch{}
	if endedAt, ok := info.EndedTime(); ok {
		patch.EndedAt = &endedAt
	} else {
		now := time.Now().UTC()
		patch.EndedAt = &now
	}

	updated, err := r.store.FailRecording(ctx, recording.ExternalJobID, patch)
	if err != nil {
		return services.Wrap(services.ErrTransient, "reconciler", "fail", "update recording", err)
	}
	if !updated {
		r.logger.Warn("stale callback for terminal recording ignored",
			logging.String(logging.FieldJobID, recording.ExternalJobID),
			logging.String("stored_status", string(recording.Status)))
		return nil
	}

	r.logger.Info("recording failed",
		logging.String(logging.FieldJobID, recording.ExternalJobID),
		logging.String(logging.FieldSessionKey, recording.SessionKey))
	return nil
}

// classifyOutputs sorts reported artifact locations into the playlist and
// single-file slots by suffix, then normalizes each into a public URL. The
// first artifact of each kind wins; extras are logged and dropped.
func (r *Reconciler) classifyOutputs(info *egress.EgressInfo) (playlistURL, downloadURL string) {
	var locations []string
	for _, segment := range info.SegmentResults {
		locations = append(locations, segment.PlaylistLocation)
	}
	for _, file := range info.FileResults {
		locations = append(locations, file.Filename)
	}

	for _, location := range locations {
		location = strings.TrimSpace(location)
		if location == "" {
			continue
		}
		if strings.HasSuffix(location, ".m3u8") {
			if playlistURL == "" {
				playlistURL = r.normalizer.Normalize(location)
			} else {
				r.logger.Warn("extra playlist output dropped", logging.String("location", location))
			}
			continue
		}
		if downloadURL == "" {
			downloadURL = r.normalizer.Normalize(location)
		} else {
			r.logger.Warn("extra file output dropped", logging.String("location", location))
		}
	}
	return playlistURL, downloadURL
}
