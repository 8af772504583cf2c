package alarms

import (
	"context"
	"errors"

	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
)

var (
	// ErrNotFound is returned when no alarm exists with the requested id.
	ErrNotFound = errors.New("alarm not found")
	// ErrAlreadyExists is returned when creating an alarm whose id is taken.
	ErrAlreadyExists = errors.New("alarm already exists")
)

// Store defines persistence operations for the alarm collection.
// Implementations must be read-after-write consistent within a process.
type Store interface {
	// List returns all alarms.
	List(ctx context.Context) ([]*domain.Alarm, error)
	// Get returns the alarm with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Alarm, error)
	// Create stores a new alarm, minting an id when none is set.
	Create(ctx context.Context, a *domain.Alarm) (*domain.Alarm, error)
	// Update applies a partial update to an existing alarm.
	Update(ctx context.Context, id string, patch *domain.Patch) (*domain.Alarm, error)
	// Delete removes the alarm with the given id.
	Delete(ctx context.Context, id string) error
}
