package mediaurl

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"lectern/internal/config"
	"lectern/internal/logging"
)

// Normalizer turns heterogeneous artifact locations reported by the recording
// backend (absolute URLs or relative object keys) into stable public URLs.
// Deterministic given config and input; no network calls.
type Normalizer struct {
	storage config.Storage
	logger  *slog.Logger
}

// New builds a normalizer from the storage configuration.
func New(storage config.Storage, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		storage: storage,
		logger:  logging.NewComponentLogger(logger, "mediaurl"),
	}
}

// Normalize resolves a raw location to a public URL. Resolution order:
// configured public base URL, then private endpoint plus bucket, then the
// conventional cloud-storage URL form, then the raw value unchanged.
func (n *Normalizer) Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	key := n.extractKey(raw)

	if n.storage.PublicBaseURL != "" {
		return n.storage.PublicBaseURL + "/" + key
	}
	if n.storage.Endpoint != "" && n.storage.Bucket != "" {
		// Private endpoints may not be publicly playable.
		n.logger.Warn("resolving artifact against private endpoint",
			logging.String("endpoint", n.storage.Endpoint),
			logging.String("key", key))
		return n.storage.Endpoint + "/" + n.storage.Bucket + "/" + key
	}
	if n.storage.Bucket != "" && n.storage.Region != "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", n.storage.Bucket, n.storage.Region, key)
	}
	return raw
}

// extractKey reduces a location to the object key. Absolute URLs are parsed
// and, when the configured bucket appears in the path, the key is everything
// after it; otherwise the full path is the key. Relative values are already
// keys.
func (n *Normalizer) extractKey(raw string) string {
	if !strings.Contains(raw, "://") {
		return strings.TrimLeft(raw, "/")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return strings.TrimLeft(raw, "/")
	}

	path := strings.TrimLeft(parsed.Path, "/")
	if n.storage.Bucket != "" {
		marker := n.storage.Bucket + "/"
		if after, found := strings.CutPrefix(path, marker); found {
			return after
		}
		if idx := strings.Index(path, "/"+marker); idx >= 0 {
			return path[idx+1+len(marker):]
		}
	}
	return path
}
