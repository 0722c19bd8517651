// Package config loads, normalizes, and validates Lectern configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// LECTERN_EGRESS_API_KEY. The Config type centralizes every knob the daemon
// and CLI need: the data directory, API bind address, egress backend
// credentials (including per-language routes), and storage URL settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
