// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries read straight from the store with SQL and return read models shaped for
// the front doors; they never write and never cache.
package queries

import (
	"errors"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/guard"
)

var (
	ErrGetRouteQueryIsNotConstructed = errors.New(
		"GetRouteQuery must be created via NewGetRouteQuery constructor",
	)
)

// GetRouteQuery retrieves one route together with its package manifest.
//
// Example:
//
//	query, err := NewGetRouteQuery(routeID)
//	if err != nil {
//	    return err
//	}
//	handler := NewGetRouteQueryHandler(db)
//
//	view, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to load route: %w", err)
//	}
//	fmt.Printf("%s is %s with %d packages\n", view.Name, view.Status, len(view.Packages))
type GetRouteQuery struct {
	routeID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetRouteQuery(routeID kernel.UUID) (GetRouteQuery, error) {
	if err := routeID.Validate(); err != nil {
		return GetRouteQuery{}, err
	}
	return GetRouteQuery{routeID: routeID, guard: guard.NewConstructorGuard()}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetRouteQuery) Validate() error {
	return q.guard.Validate(ErrGetRouteQueryIsNotConstructed)
}

func (q GetRouteQuery) RouteID() kernel.UUID {
	return q.routeID
}

// GetRouteQueryResponse is the route read model.
type GetRouteQueryResponse struct {
	ID          kernel.UUID
	Name        string
	DriverID    *kernel.UUID
	DriverName  string
	Status      string
	CreatedAt   time.Time
	CompletedAt *time.Time
	FinalizedAt *time.Time
	FinalizedBy string
	Packages    []PackageView
}

// PackageView is one manifest line of a route. Point is nil when the stop was
// imported without coordinates.
type PackageView struct {
	ID           kernel.UUID
	Position     int
	TrackingCode string
	Address      string
	Neighborhood string
	Phone        string
	Point        *kernel.GeoPoint
	Status       string
	UpdatedAt    time.Time
}
