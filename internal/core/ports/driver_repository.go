// Package ports defines the contracts between the lastmile core and its infrastructure:
// repositories and the unit of work over the single authoritative store, the notification
// capability and the driver location cache.
//
// Every repository returned by a UnitOfWork is bound to that unit's transaction. Reads
// always go to the store; the core keeps no in-process copy of entity state.
package ports

import (
	"context"

	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/kernel"
)

// DriverRepository defines the persistence contract for drivers.
type DriverRepository interface {
	// Add persists a new driver. The external ID must be unique.
	Add(ctx context.Context, d *driver.Driver) error

	// Get retrieves a driver by ID. Returns *errs.ObjectNotFoundError when absent.
	Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error)

	// GetByExternalID retrieves a driver by the identity issued by the chat platform.
	GetByExternalID(ctx context.Context, externalID string) (*driver.Driver, error)

	// ListByRole returns drivers with role, ordered by display name.
	ListByRole(ctx context.Context, role kernel.Role) ([]*driver.Driver, error)

	// Delete removes a driver. Routes assigned to it become unassigned and proofs lose
	// their driver reference; salary payments restrict the delete.
	Delete(ctx context.Context, id kernel.UUID) error
}
