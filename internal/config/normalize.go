package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEgress()
	c.normalizeStorage()
	c.normalizeRecording()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeEgress() {
	c.Egress.URL = strings.TrimRight(strings.TrimSpace(c.Egress.URL), "/")
	c.Egress.APIKey = strings.TrimSpace(c.Egress.APIKey)
	c.Egress.APISecret = strings.TrimSpace(c.Egress.APISecret)
	if c.Egress.APIKey == "" {
		c.Egress.APIKey = strings.TrimSpace(os.Getenv("LECTERN_EGRESS_API_KEY"))
	}
	if c.Egress.APISecret == "" {
		c.Egress.APISecret = strings.TrimSpace(os.Getenv("LECTERN_EGRESS_API_SECRET"))
	}
	if c.Egress.RequestTimeout <= 0 {
		c.Egress.RequestTimeout = defaultEgressRequestTimeout
	}
	if len(c.Egress.Routes) == 0 {
		return
	}
	normalized := make(map[string]EgressRoute, len(c.Egress.Routes))
	for language, route := range c.Egress.Routes {
		route.URL = strings.TrimRight(strings.TrimSpace(route.URL), "/")
		route.APIKey = strings.TrimSpace(route.APIKey)
		route.APISecret = strings.TrimSpace(route.APISecret)
		if route.URL == "" {
			route.URL = c.Egress.URL
		}
		normalized[strings.ToLower(strings.TrimSpace(language))] = route
	}
	c.Egress.Routes = normalized
}

func (c *Config) normalizeStorage() {
	c.Storage.Bucket = strings.Trim(strings.TrimSpace(c.Storage.Bucket), "/")
	c.Storage.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.PublicBaseURL), "/")
	c.Storage.Endpoint = strings.TrimRight(strings.TrimSpace(c.Storage.Endpoint), "/")
	c.Storage.Region = strings.TrimSpace(c.Storage.Region)
}

func (c *Config) normalizeRecording() {
	c.Recording.Layout = strings.TrimSpace(c.Recording.Layout)
	if c.Recording.Layout == "" {
		c.Recording.Layout = defaultRecordingLayout
	}
	if c.Recording.SegmentSeconds <= 0 {
		c.Recording.SegmentSeconds = defaultSegmentSeconds
	}
	if strings.TrimSpace(c.Recording.PlaylistName) == "" {
		c.Recording.PlaylistName = defaultPlaylistName
	}
	if strings.TrimSpace(c.Recording.FileName) == "" {
		c.Recording.FileName = defaultFileName
	}
	c.Recording.OutputPrefixDir = strings.Trim(strings.TrimSpace(c.Recording.OutputPrefixDir), "/")
	if c.Recording.OutputPrefixDir == "" {
		c.Recording.OutputPrefixDir = defaultOutputPrefixDir
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
