package queries

import (
	"context"
	"errors"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/guard"
)

var (
	ErrGetDriverLocationQueryIsNotConstructed = errors.New(
		"GetDriverLocationQuery must be created via NewGetDriverLocationQuery constructor",
	)
)

// GetDriverLocationQuery reads a driver's last reported position.
type GetDriverLocationQuery struct {
	driverID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetDriverLocationQuery(driverID kernel.UUID) (GetDriverLocationQuery, error) {
	if err := driverID.Validate(); err != nil {
		return GetDriverLocationQuery{}, err
	}
	return GetDriverLocationQuery{driverID: driverID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetDriverLocationQuery) Validate() error {
	return q.guard.Validate(ErrGetDriverLocationQueryIsNotConstructed)
}

func (q GetDriverLocationQuery) DriverID() kernel.UUID {
	return q.driverID
}

// GetDriverLocationQueryHandler answers from the location cache only; positions are not
// persisted.
type GetDriverLocationQueryHandler struct {
	cache ports.LocationCache
}

func NewGetDriverLocationQueryHandler(cache ports.LocationCache) GetDriverLocationQueryHandler {
	return GetDriverLocationQueryHandler{cache: cache}
}

// Handle returns *errs.ObjectNotFoundError once the position has expired or been evicted.
func (h GetDriverLocationQueryHandler) Handle(ctx context.Context, query GetDriverLocationQuery) (ports.DriverLocation, error) {
	if err := query.Validate(); err != nil {
		return ports.DriverLocation{}, err
	}
	return h.cache.Get(ctx, query.DriverID())
}
