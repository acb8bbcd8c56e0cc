// Package remote talks to the synchronization medium: an opaque blob store
// keyed by a well-known document name, plus the token source that
// authenticates against it. The core depends on nothing beyond "last write
// visible to next read, eventually" — there is no locking primitive, no
// conditional write, and two replicas creating the same name concurrently
// may legitimately end up with two documents.
package remote

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no blob exists under the requested name or id.
	ErrNotFound = errors.New("remote: document not found")
	// ErrUnauthorized means the bearer credential was rejected.
	ErrUnauthorized = errors.New("remote: unauthorized")
)

// BlobStore is the remote object-storage collaborator.
type BlobStore interface {
	// Find resolves a document name to its id, or ErrNotFound.
	Find(ctx context.Context, name string) (string, error)
	// Create makes a new document under name and returns its id.
	Create(ctx context.Context, name string, initial []byte) (string, error)
	// Read downloads the full document body.
	Read(ctx context.Context, id string) ([]byte, error)
	// Write overwrites the full document body. No conditional semantics:
	// last writer wins at the transport level.
	Write(ctx context.Context, id string, data []byte) error
}

// TokenSource yields a bearer token, acquiring one interactively or from a
// token endpoint as needed. It may fail outright (consent dismissed,
// endpoint down); callers treat that as a recoverable sync error.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
