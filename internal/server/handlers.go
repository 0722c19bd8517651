package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"lectern/internal/api"
	"lectern/internal/egress"
	"lectern/internal/logging"
	"lectern/internal/recording"
	"lectern/internal/services"
	"lectern/internal/transcript"
)

// statusForError maps the service error taxonomy to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, services.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	message := err.Error()
	if status == http.StatusConflict {
		message = "recording already in progress"
	}
	s.writeError(w, status, message)
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(out); err != nil {
		return services.Wrap(services.ErrValidation, "api-server", "decode request", "invalid JSON body", err)
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.status == nil {
		s.writeJSON(w, http.StatusOK, api.DaemonStatus{Running: true})
		return
	}
	s.writeJSON(w, http.StatusOK, s.status(r.Context()))
}

func (s *Server) handleSessionInit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.SessionInitRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}

	ctx := services.WithSessionKey(r.Context(), req.RoomInstanceID)
	ctx = services.WithRoom(ctx, req.RoomDisplayName)

	session, err := s.resolver.Resolve(ctx, req.RoomInstanceID, req.RoomDisplayName, req.Language)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSession(session))
}

func (s *Server) handleSessionEnd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.SessionEndRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}

	session, err := s.resolver.End(services.WithSessionKey(r.Context(), req.SessionKey), req.SessionKey)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSession(session))
}

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := parseLimit(r.URL.Query().Get("limit"))
	sessions, err := s.resolver.List(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	payload := api.SessionListResponse{Items: make([]api.Session, 0, len(sessions))}
	for _, session := range sessions {
		payload.Items = append(payload.Items, api.FromSession(session))
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleRecordingStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.RecordingStartRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}

	ctx := services.WithSessionKey(r.Context(), req.RoomInstanceID)
	ctx = services.WithRoom(ctx, req.RoomDisplayName)

	rec, err := s.manager.Start(ctx, recording.StartRequest{
		RoomInstanceID: req.RoomInstanceID,
		RoomName:       req.RoomDisplayName,
		Language:       req.Language,
		RequestedBy:    req.RequestedBy,
		ClassroomID:    req.ClassroomID,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromRecording(rec))
}

func (s *Server) handleRecordingStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.RecordingStopRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}

	if err := s.manager.Stop(services.WithRoom(r.Context(), req.RoomDisplayName), req.RoomDisplayName, req.Language); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"stopped": true})
}

func (s *Server) handleRecordingList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	recordings, err := s.manager.List(r.Context(), query.Get("sessionKey"), parseLimit(query.Get("limit")))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	payload := api.RecordingListResponse{Items: make([]api.Recording, 0, len(recordings))}
	for _, rec := range recordings {
		payload.Items = append(payload.Items, api.FromRecording(rec))
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleTranscripts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleTranscriptAppend(w, r)
	case http.MethodGet:
		s.handleTranscriptList(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleTranscriptAppend(w http.ResponseWriter, r *http.Request) {
	var req api.TranscriptAppendRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}

	created, err := s.capture.Append(services.WithSessionKey(r.Context(), req.SessionKey), transcript.AppendRequest{
		SessionKey:  req.SessionKey,
		Language:    req.Language,
		SpeakerName: req.SpeakerName,
		Text:        req.Text,
		OffsetMS:    req.OffsetMS,
		SegmentKey:  req.SegmentKey,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.TranscriptAppendResponse{Created: created})
}

func (s *Server) handleTranscriptList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sessionKey := query.Get("sessionKey")
	fragments, err := s.capture.Fragments(r.Context(), sessionKey, query.Get("language"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	payload := api.TranscriptListResponse{Items: make([]api.Fragment, 0, len(fragments))}
	for _, fragment := range fragments {
		payload.Items = append(payload.Items, api.FromFragment(fragment))
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// handleWebhook always acknowledges the backend with 200, even for unknown
// jobs or malformed bodies, so it does not retry indefinitely. The one
// exception is a datastore write failure, reported as 5xx so the backend's
// retry mechanism redelivers the callback.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var event egress.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.logger.Warn("malformed webhook body ignored", logging.Error(err))
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if err := s.reconciler.HandleEvent(r.Context(), &event); err != nil {
		s.logger.Error("webhook reconciliation failed", logging.Error(err))
		s.writeError(w, http.StatusServiceUnavailable, "reconciliation failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
