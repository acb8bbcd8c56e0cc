// Package store implements the Local Store: the on-device copy of the
// synchronized dataset plus purely local state (device fingerprint, session).
//
// The dataset is one versioned JSON document. There are no partial writes:
// every mutation loads the whole document, changes it in memory and saves the
// whole document back. That keeps the store trivially consistent locally and
// pushes all cross-device conflict handling to the merge layer.
package store

import (
	"context"

	"github.com/shoyaib4265a/st-shop-poss/internal/model"
)

// Store is the single source of truth between sync cycles.
type Store interface {
	// Load returns the current dataset, seeding the default document
	// (one bootstrap admin credential) on first use.
	Load(ctx context.Context) (*model.Dataset, error)
	// Save atomically replaces the whole document and bumps its version.
	Save(ctx context.Context, d *model.Dataset) error
	// Version returns the local document version counter.
	Version(ctx context.Context) (int64, error)

	// DeviceID returns this installation's stable fingerprint, generating
	// and persisting it on first call.
	DeviceID(ctx context.Context) (string, error)

	// Session returns the current local session, or nil when logged out.
	Session(ctx context.Context) (*model.Session, error)
	SetSession(ctx context.Context, s model.Session) error
	ClearSession(ctx context.Context) error

	Close() error
}
