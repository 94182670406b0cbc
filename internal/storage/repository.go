// Package storage provides durable backends for the progress document.
package storage

import (
	"context"
	"errors"
)

// DefaultKey is the fixed key under which the progress document is stored
const DefaultKey = "cf_problem_browser_progress"

// ErrUnknownBackend is returned by Open for an unsupported backend name
var ErrUnknownBackend = errors.New("unknown storage backend")

// Backend stores one opaque document under a fixed key
type Backend interface {
	// Load returns the stored document, or nil when nothing was saved yet
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the stored document
	Save(ctx context.Context, data []byte) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
