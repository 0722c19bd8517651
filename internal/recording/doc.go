// Package recording owns the lifecycle of backend capture jobs: starting and
// stopping them against the backend's live state, and reconciling the local
// recording rows from the backend's asynchronous callbacks.
package recording
