// Package store persists computed result documents for dashboard consumers.
package store

import (
	"context"
	"fmt"
	"regexp"
)

// Store reads and writes named result documents (JSON payloads).
type Store interface {
	// Put replaces the named document with payload.
	Put(ctx context.Context, name string, payload []byte) error
	// Get returns the named document, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
	// Names lists available document names.
	Names(ctx context.Context) ([]string, error)
	// Close releases backend resources.
	Close() error
}

// ErrNotFound reports a missing document.
var ErrNotFound = fmt.Errorf("document not found")

var documentNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateName rejects document names that could escape the backend keyspace.
func ValidateName(name string) error {
	if !documentNamePattern.MatchString(name) {
		return fmt.Errorf("invalid document name %q", name)
	}
	return nil
}
