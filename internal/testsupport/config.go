package testsupport

import (
	"path/filepath"
	"testing"

	"lectern/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Egress.URL = "http://egress.test"
	cfg.Egress.APIKey = "test-key"
	cfg.Egress.APISecret = "test-secret"
	cfg.Storage.Bucket = "test-bucket"
	cfg.Storage.Region = "us-east-1"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithStorage overrides the storage section on the test config.
func WithStorage(storage config.Storage) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Storage = storage
	}
}

// WithRoutes sets per-language egress routes on the test config.
func WithRoutes(routes map[string]config.EgressRoute) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Egress.Routes = routes
	}
}
