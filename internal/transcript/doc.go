// Package transcript persists live transcription and translation fragments,
// deduplicating client replays and preserving offset-based ordering for
// playback reconstruction.
package transcript
