package egress

import (
	"encoding/json"
	"fmt"
	"time"
)

// RawStatus holds the backend's job status as delivered. The backend is
// inconsistent about whether it sends a symbolic name or a numeric code, so
// both are accepted and resolved through Phase.
type RawStatus struct {
	Symbol string
	Code   int64
	IsCode bool
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (s *RawStatus) UnmarshalJSON(data []byte) error {
	var symbol string
	if err := json.Unmarshal(data, &symbol); err == nil {
		*s = RawStatus{Symbol: symbol}
		return nil
	}
	var code int64
	if err := json.Unmarshal(data, &code); err == nil {
		*s = RawStatus{Code: code, IsCode: true}
		return nil
	}
	return fmt.Errorf("status must be string or number, got %s", data)
}

// MarshalJSON writes the status back in the encoding it arrived with.
func (s RawStatus) MarshalJSON() ([]byte, error) {
	if s.IsCode {
		return json.Marshal(s.Code)
	}
	return json.Marshal(s.Symbol)
}

// Phase resolves the raw encoding into the closed phase enumeration.
func (s RawStatus) Phase() JobPhase {
	if s.IsCode {
		return phaseFromCode(s.Code)
	}
	return phaseFromSymbol(s.Symbol)
}

// FileResult describes one single-file output artifact.
type FileResult struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// SegmentResult describes one segmented (playlist) output artifact.
type SegmentResult struct {
	PlaylistLocation string `json:"playlistLocation"`
	Size             int64  `json:"size"`
}

// EgressInfo is the job state embedded in callbacks and list responses.
type EgressInfo struct {
	EgressID       string          `json:"egressId"`
	Status         RawStatus       `json:"status"`
	RoomName       string          `json:"roomName"`
	StartedAt      int64           `json:"startedAt"`
	EndedAt        int64           `json:"endedAt"`
	Duration       int64           `json:"duration"`
	FileResults    []FileResult    `json:"fileResults"`
	SegmentResults []SegmentResult `json:"segmentResults"`
}

// WebhookEvent is the inbound callback body.
type WebhookEvent struct {
	Event      string      `json:"event"`
	EgressInfo *EgressInfo `json:"egressInfo"`
}

// The backend reports wall-clock values in milliseconds or nanoseconds
// depending on version. Anything at or above 1e15 is taken as nanoseconds;
// millisecond timestamps will not reach that magnitude for tens of millennia.
const nanosecondThreshold = 1_000_000_000_000_000

func timeFromBackendUnits(value int64) time.Time {
	if value >= nanosecondThreshold {
		return time.Unix(0, value).UTC()
	}
	return time.UnixMilli(value).UTC()
}

// StartedTime converts the reported start timestamp. The second return is
// false when the backend omitted the value.
func (i *EgressInfo) StartedTime() (time.Time, bool) {
	if i == nil || i.StartedAt <= 0 {
		return time.Time{}, false
	}
	return timeFromBackendUnits(i.StartedAt), true
}

// EndedTime converts the reported end timestamp. The second return is false
// when the backend omitted the value.
func (i *EgressInfo) EndedTime() (time.Time, bool) {
	if i == nil || i.EndedAt <= 0 {
		return time.Time{}, false
	}
	return timeFromBackendUnits(i.EndedAt), true
}

// DurationSeconds converts the reported nanosecond duration to whole seconds.
// The second return is false when the backend omitted the value; callers fall
// back to end minus start only in that case.
func (i *EgressInfo) DurationSeconds() (int64, bool) {
	if i == nil || i.Duration <= 0 {
		return 0, false
	}
	return int64(time.Duration(i.Duration).Round(time.Second) / time.Second), true
}

// TotalSize sums reported sizes across every output artifact.
func (i *EgressInfo) TotalSize() int64 {
	if i == nil {
		return 0
	}
	var total int64
	for _, file := range i.FileResults {
		total += file.Size
	}
	for _, segment := range i.SegmentResults {
		total += segment.Size
	}
	return total
}

// SegmentedOutput describes a requested playlist output.
type SegmentedOutput struct {
	PlaylistName    string `json:"playlistName"`
	FilenamePrefix  string `json:"filenamePrefix"`
	SegmentDuration int    `json:"segmentDuration"`
}

// FileOutput describes a requested single-file output.
type FileOutput struct {
	Filepath string `json:"filepath"`
}

// StartJobRequest asks the backend to start capturing a room into the two
// requested artifacts.
type StartJobRequest struct {
	RoomName  string           `json:"roomName"`
	Layout    string           `json:"layout,omitempty"`
	Segments  *SegmentedOutput `json:"segments,omitempty"`
	File      *FileOutput      `json:"file,omitempty"`
	RequestID string           `json:"requestId,omitempty"`
}
