package store

import "time"

// Status represents the lifecycle of a recording.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status is absorbing. Terminal recordings are
// never mutated by later callbacks.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Session represents one live instance of a room. A room name can be reused
// across unrelated instances, so only SessionKey is a stable identifier.
type Session struct {
	ID         int64
	SessionKey string
	DisplayID  string
	RoomName   string
	Language   string
	StartedAt  time.Time
	EndedAt    *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Recording represents one egress job bound to a session.
type Recording struct {
	ID               int64
	ExternalJobID    string
	SessionKey       string
	RoomName         string
	DisplaySessionID string
	Status           Status
	PlaylistURL      string
	DownloadURL      string
	DurationSeconds  *int64
	SizeBytes        *int64
	RequestedBy      string
	ClassroomID      string
	StartedAt        time.Time
	EndedAt          *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Fragment is one utterance segment in one language attributed to a session.
type Fragment struct {
	ID          int64
	SessionKey  string
	Language    string
	SegmentKey  string
	SpeakerName string
	Text        string
	OffsetMS    int64
	CreatedAt   time.Time
}

// RecordingPatch carries the field updates applied when a recording reaches a
// terminal state. All fields are applied in a single update call.
type RecordingPatch struct {
	PlaylistURL     string
	DownloadURL     string
	DurationSeconds *int64
	SizeBytes       *int64
	EndedAt         *time.Time
}
