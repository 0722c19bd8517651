// Package session owns session identity: deriving display labels and
// resolving the canonical session row for a room instance under concurrent
// callers.
package session
