package commands

import (
	"context"

	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/pkg/clock"
)

// CompleteRouteCommandHandler completes routes on manager request.
// Completing a route that is already completed or finalized returns it unchanged.
type CompleteRouteCommandHandler struct {
	uowFactory UoWFactory
	clock      clock.Clock
}

func NewCompleteRouteCommandHandler(uowFactory UoWFactory, clk clock.Clock) CompleteRouteCommandHandler {
	return CompleteRouteCommandHandler{uowFactory: uowFactory, clock: clk}
}

// Handle returns the route as stored after the call. A route with pending packages
// cannot be completed and yields *errs.InvalidTransitionError.
func (h *CompleteRouteCommandHandler) Handle(ctx context.Context, cmd CompleteRouteCommand) (route.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return route.Snapshot{}, err
	}
	if err := cmd.Actor().RequireManager("complete route"); err != nil {
		return route.Snapshot{}, err
	}

	var snapshot route.Snapshot
	err := inTx(ctx, h.uowFactory.Create, func(uow UoW) error {
		routes := uow.RouteRepository()
		r, err := routes.GetForUpdate(ctx, cmd.RouteID())
		if err != nil {
			return err
		}

		pending, err := uow.PackageRepository().CountByStatus(ctx, r.ID(), shipment.Pending)
		if err != nil {
			return err
		}

		previous := r.Status()
		changed, err := r.Complete(pending, h.clock.Now())
		if err != nil {
			return err
		}
		if changed {
			if err = routes.Update(ctx, r, previous); err != nil {
				return err
			}
		}

		snapshot = r.Snapshot()
		return nil
	})
	if err != nil {
		return route.Snapshot{}, err
	}
	return snapshot, nil
}
