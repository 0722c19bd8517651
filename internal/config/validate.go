package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEgress(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateRecording(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateEgress() error {
	if c.Egress.URL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/lectern/config.toml"
		}
		return fmt.Errorf("egress.url is required. Edit %s (create with 'lectern config init')", defaultPath)
	}
	if c.Egress.APIKey == "" || c.Egress.APISecret == "" {
		return errors.New("egress.api_key and egress.api_secret must be set (or LECTERN_EGRESS_API_KEY / LECTERN_EGRESS_API_SECRET env vars)")
	}
	for language, route := range c.Egress.Routes {
		if strings.TrimSpace(language) == "" {
			return errors.New("egress.routes keys must be non-empty language codes")
		}
		if route.APIKey == "" || route.APISecret == "" {
			return fmt.Errorf("egress.routes.%s must set api_key and api_secret", language)
		}
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket must be set")
	}
	if c.Storage.PublicBaseURL == "" && c.Storage.Endpoint == "" && c.Storage.Region == "" {
		return errors.New("storage requires one of public_base_url, endpoint, or region")
	}
	return nil
}

func (c *Config) validateRecording() error {
	switch c.Recording.Layout {
	case "speaker", "grid", "single-speaker":
		return nil
	default:
		return fmt.Errorf("recording.layout: unsupported value %q", c.Recording.Layout)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
