package ports

import (
	"context"
	"time"

	"lastmile/internal/core/domain/model/kernel"
)

// DriverLocation is the last GPS fix reported by a driver.
type DriverLocation struct {
	DriverID   kernel.UUID
	Point      kernel.GeoPoint
	AccuracyM  *float64
	RecordedAt time.Time
}

// LocationCache keeps the last known location per driver. It is bounded and entries
// expire; Get returns *errs.ObjectNotFoundError for an unknown or expired driver.
type LocationCache interface {
	Put(ctx context.Context, loc DriverLocation) error
	Get(ctx context.Context, driverID kernel.UUID) (DriverLocation, error)
}
