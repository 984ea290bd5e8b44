package ports

import (
	"context"
	"errors"

	"github.com/aretw0/formwork/pkg/domain"
)

// ErrSnapshotNotFound is returned when no snapshot is parked under a name.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// RecoveryCache parks the state of detached fields so that a field removed
// and registered again under the same name recovers its prior state once.
type RecoveryCache interface {
	// Put stores the snapshot of name, replacing any previous one.
	Put(ctx context.Context, name string, snap domain.Snapshot) error

	// Take returns and removes the snapshot of name.
	// Returns ErrSnapshotNotFound if nothing is parked under name.
	Take(ctx context.Context, name string) (domain.Snapshot, error)

	// Delete drops the snapshot of name, if any.
	Delete(ctx context.Context, name string) error

	// Clear drops every snapshot.
	Clear(ctx context.Context) error
}
