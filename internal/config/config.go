package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// EgressRoute holds one credential set for the recording backend. Routes allow
// sessions to be recorded against different backend deployments keyed by the
// session's language attribute.
type EgressRoute struct {
	URL       string `toml:"url"`
	APIKey    string `toml:"api_key"`
	APISecret string `toml:"api_secret"`
}

// Egress contains configuration for the external recording backend.
type Egress struct {
	URL            string                 `toml:"url"`
	APIKey         string                 `toml:"api_key"`
	APISecret      string                 `toml:"api_secret"`
	RequestTimeout int                    `toml:"request_timeout"`
	Routes         map[string]EgressRoute `toml:"routes"`
}

// Storage contains configuration for resolving artifact locations reported by
// the recording backend into stable public URLs.
type Storage struct {
	Bucket        string `toml:"bucket"`
	PublicBaseURL string `toml:"public_base_url"`
	Endpoint      string `toml:"endpoint"`
	Region        string `toml:"region"`
}

// Recording contains configuration for requested recording outputs.
type Recording struct {
	Layout          string `toml:"layout"`
	SegmentSeconds  int    `toml:"segment_seconds"`
	PlaylistName    string `toml:"playlist_name"`
	FileName        string `toml:"file_name"`
	OutputPrefixDir string `toml:"output_prefix_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Lectern.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories, API bind address and token
//   - Egress: recording backend credentials and per-language routes
//   - Storage: bucket and URL settings for artifact normalization
//   - Recording: output layout and artifact naming
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Egress    Egress    `toml:"egress"`
	Storage   Storage   `toml:"storage"`
	Recording Recording `toml:"recording"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lectern/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lectern.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the path of the sqlite database inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "lectern.db")
}

// RouteFor returns the egress credentials for the supplied language attribute,
// falling back to the default credential set when no route matches.
func (c *Config) RouteFor(language string) EgressRoute {
	language = strings.ToLower(strings.TrimSpace(language))
	if route, ok := c.Egress.Routes[language]; ok {
		return route
	}
	return EgressRoute{
		URL:       c.Egress.URL,
		APIKey:    c.Egress.APIKey,
		APISecret: c.Egress.APISecret,
	}
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath resolves ~ prefixes and returns a cleaned absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
