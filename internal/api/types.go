package api

import (
	"time"

	"lectern/internal/store"
)

// Session describes a session row in a transport-friendly format.
type Session struct {
	SessionKey string `json:"sessionKey"`
	DisplayID  string `json:"displayId"`
	RoomName   string `json:"roomName"`
	Language   string `json:"language,omitempty"`
	StartedAt  string `json:"startedAt"`
	EndedAt    string `json:"endedAt,omitempty"`
}

// Recording describes a recording row in a transport-friendly format.
type Recording struct {
	ExternalJobID    string `json:"externalJobId"`
	SessionKey       string `json:"sessionKey"`
	RoomName         string `json:"roomName"`
	DisplaySessionID string `json:"displaySessionId"`
	Status           string `json:"status"`
	PlaylistURL      string `json:"playlistUrl,omitempty"`
	DownloadURL      string `json:"downloadUrl,omitempty"`
	DurationSeconds  *int64 `json:"durationSeconds,omitempty"`
	SizeBytes        *int64 `json:"sizeBytes,omitempty"`
	RequestedBy      string `json:"requestedBy,omitempty"`
	ClassroomID      string `json:"classroomId,omitempty"`
	StartedAt        string `json:"startedAt"`
	EndedAt          string `json:"endedAt,omitempty"`
}

// Fragment describes a transcript fragment in a transport-friendly format.
type Fragment struct {
	Language    string `json:"language"`
	SpeakerName string `json:"speakerName,omitempty"`
	Text        string `json:"text"`
	OffsetMS    int64  `json:"offsetMs"`
	SegmentKey  string `json:"segmentKey,omitempty"`
}

// SessionInitRequest starts or finds a session for a room instance.
type SessionInitRequest struct {
	RoomInstanceID  string `json:"roomInstanceId"`
	RoomDisplayName string `json:"roomDisplayName"`
	Language        string `json:"language,omitempty"`
}

// SessionEndRequest closes an open session.
type SessionEndRequest struct {
	SessionKey string `json:"sessionKey"`
}

// RecordingStartRequest starts a capture job for a room instance.
type RecordingStartRequest struct {
	RoomInstanceID  string `json:"roomInstanceId"`
	RoomDisplayName string `json:"roomDisplayName"`
	Language        string `json:"language,omitempty"`
	RequestedBy     string `json:"requestedBy,omitempty"`
	ClassroomID     string `json:"classroomId,omitempty"`
}

// RecordingStopRequest stops the active capture jobs for a room.
type RecordingStopRequest struct {
	RoomDisplayName string `json:"roomDisplayName"`
	Language        string `json:"language,omitempty"`
}

// TranscriptAppendRequest appends one utterance fragment.
type TranscriptAppendRequest struct {
	SessionKey  string `json:"sessionKey"`
	Language    string `json:"language"`
	SpeakerName string `json:"speakerName,omitempty"`
	Text        string `json:"text"`
	OffsetMS    int64  `json:"offsetMs"`
	SegmentKey  string `json:"segmentKey,omitempty"`
}

// TranscriptAppendResponse reports whether the fragment was newly created.
type TranscriptAppendResponse struct {
	Created bool `json:"created"`
}

// SessionListResponse wraps a collection of sessions.
type SessionListResponse struct {
	Items []Session `json:"items"`
}

// RecordingListResponse wraps a collection of recordings.
type RecordingListResponse struct {
	Items []Recording `json:"items"`
}

// TranscriptListResponse wraps a session's fragments in playback order.
type TranscriptListResponse struct {
	Items []Fragment `json:"items"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	DatabasePath string `json:"databasePath"`
	LockFilePath string `json:"lockFilePath"`
	Sessions     int    `json:"sessions"`
	Recordings   int    `json:"recordings"`
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func formatOptionalTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return formatTime(*value)
}

// FromSession converts a store row to its API shape.
func FromSession(session *store.Session) Session {
	return Session{
		SessionKey: session.SessionKey,
		DisplayID:  session.DisplayID,
		RoomName:   session.RoomName,
		Language:   session.Language,
		StartedAt:  formatTime(session.StartedAt),
		EndedAt:    formatOptionalTime(session.EndedAt),
	}
}

// FromRecording converts a store row to its API shape.
func FromRecording(recording *store.Recording) Recording {
	return Recording{
		ExternalJobID:    recording.ExternalJobID,
		SessionKey:       recording.SessionKey,
		RoomName:         recording.RoomName,
		DisplaySessionID: recording.DisplaySessionID,
		Status:           string(recording.Status),
		PlaylistURL:      recording.PlaylistURL,
		DownloadURL:      recording.DownloadURL,
		DurationSeconds:  recording.DurationSeconds,
		SizeBytes:        recording.SizeBytes,
		RequestedBy:      recording.RequestedBy,
		ClassroomID:      recording.ClassroomID,
		StartedAt:        formatTime(recording.StartedAt),
		EndedAt:          formatOptionalTime(recording.EndedAt),
	}
}

// FromFragment converts a store row to its API shape.
func FromFragment(fragment *store.Fragment) Fragment {
	return Fragment{
		Language:    fragment.Language,
		SpeakerName: fragment.SpeakerName,
		Text:        fragment.Text,
		OffsetMS:    fragment.OffsetMS,
		SegmentKey:  fragment.SegmentKey,
	}
}
