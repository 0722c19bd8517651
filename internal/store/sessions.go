package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sessionColumns = "id, session_key, display_id, room_name, language, started_at, ended_at, created_at, updated_at"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id         int64
		sessionKey string
		displayID  string
		roomName   string
		language   sql.NullString
		startedRaw string
		endedRaw   sql.NullString
		createdRaw string
		updatedRaw string
	)

	if err := scanner.Scan(
		&id,
		&sessionKey,
		&displayID,
		&roomName,
		&language,
		&startedRaw,
		&endedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	session := &Session{
		ID:         id,
		SessionKey: sessionKey,
		DisplayID:  displayID,
		RoomName:   roomName,
		Language:   language.String,
		EndedAt:    parseOptionalTime(endedRaw),
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		session.StartedAt = started
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		session.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		session.UpdatedAt = updated
	}
	return session, nil
}

// InsertSession creates a session row. A second insert for the same session
// key returns ErrDuplicate so callers can fall back to re-reading the winner.
func (s *Store) InsertSession(ctx context.Context, session *Session) (*Session, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	startedAt := session.StartedAt
	if startedAt.IsZero() {
		startedAt = now
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO sessions (
            session_key, display_id, room_name, language, started_at, ended_at, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.SessionKey,
		session.DisplayID,
		session.RoomName,
		nullableString(session.Language),
		formatTime(startedAt),
		nullableTime(session.EndedAt),
		timestamp,
		timestamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.SessionByID(ctx, id)
}

// SessionByID fetches a session by row identifier.
func (s *Store) SessionByID(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// SessionByKey fetches a session by its stable session key. Returns nil when
// no session matches.
func (s *Store) SessionByKey(ctx context.Context, sessionKey string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE session_key = ?`, sessionKey)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by key: %w", err)
	}
	return session, nil
}

// EndSession stamps ended_at for an open session. Already-ended sessions keep
// their original timestamp; the call reports whether a row was closed.
func (s *Store) EndSession(ctx context.Context, sessionKey string, endedAt time.Time) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions SET ended_at = ?, updated_at = ? WHERE session_key = ? AND ended_at IS NULL`,
		formatTime(endedAt),
		formatTime(time.Now().UTC()),
		sessionKey,
	)
	if err != nil {
		return false, fmt.Errorf("end session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// CountSessions returns the total number of session rows.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

// ListSessions returns sessions ordered newest first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}
