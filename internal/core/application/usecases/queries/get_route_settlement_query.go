package queries

import (
	"errors"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/services"
	"lastmile/internal/pkg/guard"
)

var (
	ErrGetRouteSettlementQueryIsNotConstructed = errors.New(
		"GetRouteSettlementQuery must be created via NewGetRouteSettlementQuery constructor",
	)
)

// GetRouteSettlementQuery computes the financial summary of one route.
type GetRouteSettlementQuery struct {
	routeID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetRouteSettlementQuery(routeID kernel.UUID) (GetRouteSettlementQuery, error) {
	if err := routeID.Validate(); err != nil {
		return GetRouteSettlementQuery{}, err
	}
	return GetRouteSettlementQuery{routeID: routeID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetRouteSettlementQuery) Validate() error {
	return q.guard.Validate(ErrGetRouteSettlementQueryIsNotConstructed)
}

func (q GetRouteSettlementQuery) RouteID() kernel.UUID {
	return q.routeID
}

// GetRouteSettlementQueryResponse carries the settlement and whether it is final.
// A finalized route reports its frozen values; any other route gets a preview with
// no extra income or expenses and the salary its driver's rate would give today.
type GetRouteSettlementQueryResponse struct {
	RouteID    kernel.UUID
	Status     string
	Final      bool
	Settlement services.Settlement
}
