package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConflict marks operations rejected because an exclusive resource is
	// already held, e.g. a recording is already running for the room.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks lookups for sessions, recordings, or jobs that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed or incomplete caller input.
	ErrValidation = errors.New("validation error")
	// ErrTransient marks retryable datastore failures.
	ErrTransient = errors.New("transient failure")
	// ErrUpstream marks failures reaching the recording backend.
	ErrUpstream = errors.New("upstream unavailable")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
