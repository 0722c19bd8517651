// Command lectern is the CLI companion to lecternd. It talks to the daemon's
// HTTP API to inspect sessions, recordings, and transcripts, and carries
// configuration utilities for first-time setup.
package main
