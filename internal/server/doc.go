// Package server exposes the HTTP surface: session and transcript endpoints
// for UI and live-capture clients, recording control, and the backend's
// webhook callback.
package server
