package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const recordingColumns = "id, external_job_id, session_key, room_name, display_session_id, status, playlist_url, download_url, duration_seconds, size_bytes, requested_by, classroom_id, started_at, ended_at, created_at, updated_at"

func scanRecording(scanner interface{ Scan(dest ...any) error }) (*Recording, error) {
	var (
		id          int64
		jobID       string
		sessionKey  string
		roomName    string
		displayID   string
		statusStr   string
		playlistURL sql.NullString
		downloadURL sql.NullString
		duration    sql.NullInt64
		size        sql.NullInt64
		requestedBy sql.NullString
		classroomID sql.NullString
		startedRaw  string
		endedRaw    sql.NullString
		createdRaw  string
		updatedRaw  string
	)

	if err := scanner.Scan(
		&id,
		&jobID,
		&sessionKey,
		&roomName,
		&displayID,
		&statusStr,
		&playlistURL,
		&downloadURL,
		&duration,
		&size,
		&requestedBy,
		&classroomID,
		&startedRaw,
		&endedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	recording := &Recording{
		ID:               id,
		ExternalJobID:    jobID,
		SessionKey:       sessionKey,
		RoomName:         roomName,
		DisplaySessionID: displayID,
		Status:           Status(statusStr),
		PlaylistURL:      playlistURL.String,
		DownloadURL:      downloadURL.String,
		DurationSeconds:  optionalInt64(duration),
		SizeBytes:        optionalInt64(size),
		RequestedBy:      requestedBy.String,
		ClassroomID:      classroomID.String,
		EndedAt:          parseOptionalTime(endedRaw),
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		recording.StartedAt = started
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		recording.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		recording.UpdatedAt = updated
	}
	return recording, nil
}

// InsertRecording creates a recording row in the active state. A second insert
// for the same external job id returns ErrDuplicate.
func (s *Store) InsertRecording(ctx context.Context, recording *Recording) (*Recording, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	startedAt := recording.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}
	status := recording.Status
	if status == "" {
		status = StatusActive
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO recordings (
            external_job_id, session_key, room_name, display_session_id, status,
            playlist_url, download_url, duration_seconds, size_bytes,
            requested_by, classroom_id, started_at, ended_at, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recording.ExternalJobID,
		recording.SessionKey,
		recording.RoomName,
		recording.DisplaySessionID,
		status,
		nullableString(recording.PlaylistURL),
		nullableString(recording.DownloadURL),
		nullableInt64(recording.DurationSeconds),
		nullableInt64(recording.SizeBytes),
		nullableString(recording.RequestedBy),
		nullableString(recording.ClassroomID),
		formatTime(startedAt),
		nullableTime(recording.EndedAt),
		timestamp,
		timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert recording: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+recordingColumns+` FROM recordings WHERE id = ?`, id)
	inserted, err := scanRecording(row)
	if err != nil {
		return nil, fmt.Errorf("get recording: %w", err)
	}
	return inserted, nil
}

// RecordingByJobID fetches a recording by the backend's job identifier.
// Returns nil when no recording matches.
func (s *Store) RecordingByJobID(ctx context.Context, jobID string) (*Recording, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordingColumns+` FROM recordings WHERE external_job_id = ?`, jobID)
	recording, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recording by job id: %w", err)
	}
	return recording, nil
}

// ActiveForRoom returns recordings still marked active for a room.
func (s *Store) ActiveForRoom(ctx context.Context, roomName string) ([]*Recording, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE room_name = ? AND status = ? ORDER BY started_at DESC`,
		roomName,
		StatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("list active recordings: %w", err)
	}
	defer rows.Close()
	return collectRecordings(rows)
}

// CountRecordings returns the total number of recording rows.
func (s *Store) CountRecordings(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recordings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count recordings: %w", err)
	}
	return count, nil
}

// ListRecordings returns recordings ordered newest first, optionally filtered
// by session key.
func (s *Store) ListRecordings(ctx context.Context, sessionKey string, limit int) ([]*Recording, error) {
	if limit <= 0 {
		limit = 100
	}

	var (
		rows *sql.Rows
		err  error
	)
	if sessionKey != "" {
		rows, err = s.db.QueryContext(
			ctx,
			`SELECT `+recordingColumns+` FROM recordings WHERE session_key = ? ORDER BY started_at DESC LIMIT ?`,
			sessionKey,
			limit,
		)
	} else {
		rows, err = s.db.QueryContext(
			ctx,
			`SELECT `+recordingColumns+` FROM recordings ORDER BY started_at DESC LIMIT ?`,
			limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()
	return collectRecordings(rows)
}

func collectRecordings(rows *sql.Rows) ([]*Recording, error) {
	var recordings []*Recording
	for rows.Next() {
		recording, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		recordings = append(recordings, recording)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recordings: %w", err)
	}
	return recordings, nil
}

// CompleteRecording drives an active recording to completed, applying artifact
// URLs, duration, and size in a single update. The status filter makes the
// terminal states absorbing: a recording that already completed or failed is
// left untouched and the call reports false.
func (s *Store) CompleteRecording(ctx context.Context, jobID string, patch RecordingPatch) (bool, error) {
	return s.finishRecording(ctx, jobID, StatusCompleted, patch)
}

// FailRecording drives an active recording to failed. Terminal recordings are
// left untouched and the call reports false.
func (s *Store) FailRecording(ctx context.Context, jobID string, patch RecordingPatch) (bool, error) {
	return s.finishRecording(ctx, jobID, StatusFailed, patch)
}

func (s *Store) finishRecording(ctx context.Context, jobID string, status Status, patch RecordingPatch) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE recordings
         SET status = ?,
             playlist_url = COALESCE(?, playlist_url),
             download_url = COALESCE(?, download_url),
             duration_seconds = COALESCE(?, duration_seconds),
             size_bytes = COALESCE(?, size_bytes),
             ended_at = COALESCE(?, ended_at),
             updated_at = ?
         WHERE external_job_id = ? AND status = ?`,
		status,
		nullableString(patch.PlaylistURL),
		nullableString(patch.DownloadURL),
		nullableInt64(patch.DurationSeconds),
		nullableInt64(patch.SizeBytes),
		nullableTime(patch.EndedAt),
		formatTime(time.Now().UTC()),
		jobID,
		StatusActive,
	)
	if err != nil {
		return false, fmt.Errorf("finish recording: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
