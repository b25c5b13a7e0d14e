package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks a recoverable "source has nothing" condition: empty
	// listings, missing files, malformed payloads. The coordinator moves to
	// the next resolver.
	ErrNotFound = errors.New("not found")
	// ErrAuthRequired marks a failure that recurs identically without
	// credentials. It aborts a whole batch instead of marking one video failed.
	ErrAuthRequired = errors.New("authentication required")
	// ErrExternalTool marks subprocess non-zero exits and HTTP failures.
	ErrExternalTool = errors.New("external tool error")
	// ErrConfiguration marks unusable configuration values.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks rejected input (bad identifier, empty transcript).
	ErrValidation = errors.New("validation error")
	// ErrTransient marks failures worth retrying on a later run.
	ErrTransient = errors.New("transient failure")
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
