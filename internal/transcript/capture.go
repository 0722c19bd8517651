package transcript

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"lectern/internal/logging"
	"lectern/internal/services"
	"lectern/internal/store"
)

// Capture accepts utterance fragments from many concurrent publishers and
// persists them with first-writer-wins dedup.
type Capture struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCapture wires the capture pipeline.
func NewCapture(st *store.Store, logger *slog.Logger) *Capture {
	return &Capture{
		store:  st,
		logger: logging.NewComponentLogger(logger, "transcript"),
	}
}

// AppendRequest describes one fragment write.
type AppendRequest struct {
	SessionKey  string
	Language    string
	SpeakerName string
	Text        string
	OffsetMS    int64
	SegmentKey  string
}

// Append persists a fragment for an existing session.
//
// A replayed fragment carrying the same segment key returns created=false as
// an ordinary success; live captioning clients retry freely and must not be
// penalized for harmless duplicates. Fragments without a segment key always
// insert, which means at-least-once delivery can produce visible duplicates
// downstream. That is an accepted tradeoff for legacy callers, not a bug.
func (c *Capture) Append(ctx context.Context, req AppendRequest) (created bool, err error) {
	req.SessionKey = strings.TrimSpace(req.SessionKey)
	if req.SessionKey == "" {
		return false, services.Wrap(services.ErrValidation, "transcript", "append", "session key is required", nil)
	}
	if strings.TrimSpace(req.Text) == "" {
		return false, services.Wrap(services.ErrValidation, "transcript", "append", "text is required", nil)
	}
	if req.OffsetMS < 0 {
		return false, services.Wrap(services.ErrValidation, "transcript", "append", "offset must not be negative", nil)
	}

	// Session creation is owned by the resolver call paths; a transcript
	// write for an unknown session is the caller's error.
	sess, err := c.store.SessionByKey(ctx, req.SessionKey)
	if err != nil {
		return false, services.Wrap(services.ErrTransient, "transcript", "append", "read session", err)
	}
	if sess == nil {
		return false, services.Wrap(services.ErrNotFound, "transcript", "append", "unknown session "+req.SessionKey, nil)
	}

	_, err = c.store.InsertFragment(ctx, &store.Fragment{
		SessionKey:  req.SessionKey,
		Language:    CanonicalLanguage(req.Language),
		SegmentKey:  strings.TrimSpace(req.SegmentKey),
		SpeakerName: strings.TrimSpace(req.SpeakerName),
		Text:        req.Text,
		OffsetMS:    req.OffsetMS,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.logger.Debug("duplicate fragment absorbed",
				logging.String(logging.FieldSessionKey, req.SessionKey),
				logging.String(logging.FieldLanguage, req.Language),
				logging.String("segment_key", req.SegmentKey))
			return false, nil
		}
		return false, services.Wrap(services.ErrTransient, "transcript", "append", "insert fragment", err)
	}
	return true, nil
}

// Fragments returns a session's fragments ordered by offset for playback.
func (c *Capture) Fragments(ctx context.Context, sessionKey, lang string) ([]*store.Fragment, error) {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return nil, services.Wrap(services.ErrValidation, "transcript", "fragments", "session key is required", nil)
	}

	sess, err := c.store.SessionByKey(ctx, sessionKey)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcript", "fragments", "read session", err)
	}
	if sess == nil {
		return nil, services.Wrap(services.ErrNotFound, "transcript", "fragments", "unknown session "+sessionKey, nil)
	}

	if lang != "" {
		lang = CanonicalLanguage(lang)
	}
	fragments, err := c.store.FragmentsForSession(ctx, sessionKey, lang)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcript", "fragments", "list fragments", err)
	}
	return fragments, nil
}

// CanonicalLanguage reduces a caller-supplied language tag to its base code
// so "EN", "en-US", and "en" dedup against each other. Unparseable values
// fall back to the lowercased input.
func CanonicalLanguage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "und"
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}
	base, _ := tag.Base()
	return base.String()
}
