package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const fragmentColumns = "id, session_key, language, segment_key, speaker_name, text, offset_ms, created_at"

func scanFragment(scanner interface{ Scan(dest ...any) error }) (*Fragment, error) {
	var (
		id         int64
		sessionKey string
		language   string
		segmentKey sql.NullString
		speaker    sql.NullString
		text       string
		offsetMS   int64
		createdRaw string
	)

	if err := scanner.Scan(
		&id,
		&sessionKey,
		&language,
		&segmentKey,
		&speaker,
		&text,
		&offsetMS,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	fragment := &Fragment{
		ID:          id,
		SessionKey:  sessionKey,
		Language:    language,
		SegmentKey:  segmentKey.String,
		SpeakerName: speaker.String,
		Text:        text,
		OffsetMS:    offsetMS,
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		fragment.CreatedAt = created
	}
	return fragment, nil
}

// InsertFragment creates a transcript fragment. When a segment key is present
// the partial unique index makes the insert first-writer-wins: a replayed
// fragment returns ErrDuplicate and the stored text is left untouched.
// Fragments without a segment key always insert a new row.
func (s *Store) InsertFragment(ctx context.Context, fragment *Fragment) (*Fragment, error) {
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO transcript_fragments (
            session_key, language, segment_key, speaker_name, text, offset_ms, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fragment.SessionKey,
		fragment.Language,
		nullableString(fragment.SegmentKey),
		nullableString(fragment.SpeakerName),
		fragment.Text,
		fragment.OffsetMS,
		formatTime(time.Now().UTC()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert fragment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+fragmentColumns+` FROM transcript_fragments WHERE id = ?`, id)
	inserted, err := scanFragment(row)
	if err != nil {
		return nil, fmt.Errorf("get fragment: %w", err)
	}
	return inserted, nil
}

// FragmentsForSession returns fragments for a session ordered by offset so
// playback reconstruction never depends on arrival order. Language filters the
// result when non-empty.
func (s *Store) FragmentsForSession(ctx context.Context, sessionKey, language string) ([]*Fragment, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if language != "" {
		rows, err = s.db.QueryContext(
			ctx,
			`SELECT `+fragmentColumns+` FROM transcript_fragments
             WHERE session_key = ? AND language = ? ORDER BY offset_ms, id`,
			sessionKey,
			language,
		)
	} else {
		rows, err = s.db.QueryContext(
			ctx,
			`SELECT `+fragmentColumns+` FROM transcript_fragments
             WHERE session_key = ? ORDER BY offset_ms, id`,
			sessionKey,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list fragments: %w", err)
	}
	defer rows.Close()

	var fragments []*Fragment
	for rows.Next() {
		fragment, err := scanFragment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		fragments = append(fragments, fragment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fragments: %w", err)
	}
	return fragments, nil
}

// CountFragments returns the number of fragments stored for a session.
func (s *Store) CountFragments(ctx context.Context, sessionKey string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM transcript_fragments WHERE session_key = ?`,
		sessionKey,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count fragments: %w", err)
	}
	return count, nil
}
