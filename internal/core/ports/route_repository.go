package ports

import (
	"context"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/shipment"
)

// RouteRepository defines the persistence contract for route aggregates.
type RouteRepository interface {
	Add(ctx context.Context, r *route.Route) error

	// Get reads the route without locking it.
	Get(ctx context.Context, id kernel.UUID) (*route.Route, error)

	// GetForUpdate reads the route and locks its row until the unit of work ends.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*route.Route, error)

	// Update writes r only if the stored status still equals expected.
	// A lost race returns *errs.ConcurrentUpdateError.
	Update(ctx context.Context, r *route.Route, expected route.Status) error

	// Delete removes the route together with its packages, proofs, mileage, linked
	// expenses and incomes and salary payments in one statement.
	Delete(ctx context.Context, id kernel.UUID) error
}

// PackageRepository defines the persistence contract for package aggregates.
type PackageRepository interface {
	// AddAll persists packages of one route. A duplicated tracking code within the
	// route is a validation error.
	AddAll(ctx context.Context, packages []*shipment.Package) error

	Get(ctx context.Context, id kernel.UUID) (*shipment.Package, error)

	// GetForUpdate reads the package and locks its row until the unit of work ends.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*shipment.Package, error)

	// ListByRoute returns the packages of a route ordered by position.
	ListByRoute(ctx context.Context, routeID kernel.UUID) ([]*shipment.Package, error)

	// CountByStatus counts the route's packages currently in status.
	CountByStatus(ctx context.Context, routeID kernel.UUID, status shipment.Status) (int, error)

	// Update writes p only if the stored status still equals expected.
	// A lost race returns *errs.ConcurrentUpdateError.
	Update(ctx context.Context, p *shipment.Package, expected shipment.Status) error
}

// ProofRepository stores delivery proofs. Proofs are write-once.
type ProofRepository interface {
	// Add persists a proof. A second proof for the same package is rejected.
	Add(ctx context.Context, p *shipment.DeliveryProof) error

	GetByPackage(ctx context.Context, packageID kernel.UUID) (*shipment.DeliveryProof, error)

	// ListByRoute returns the proofs of a route's packages ordered by capture time.
	ListByRoute(ctx context.Context, routeID kernel.UUID) ([]*shipment.DeliveryProof, error)
}
