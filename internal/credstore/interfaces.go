package credstore

import (
	"context"
	"errors"
)

// ErrReadOnly is returned by Write on stores that cannot be written to.
var ErrReadOnly = errors.New("credential store is read-only")

// Store reads and writes a credential document.
type Store interface {
	// Exists reports whether the document is present and readable.
	// Any access error counts as absent.
	Exists(ctx context.Context) bool

	// Read returns the raw stored document.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the stored document with data.
	Write(ctx context.Context, data []byte) error

	// Location describes where the document lives, for user-facing messages.
	Location() string
}
