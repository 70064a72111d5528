package commands

import (
	"context"
)

// DeleteRouteCommandHandler removes a route and everything it owns.
//
// The store deletes packages, delivery proofs, mileage rows, linked expenses and
// incomes and the route's salary payments through foreign key cascades of the single
// route delete, so either every dependent row disappears or none does.
type DeleteRouteCommandHandler struct {
	uowFactory UoWFactory
}

func NewDeleteRouteCommandHandler(uowFactory UoWFactory) DeleteRouteCommandHandler {
	return DeleteRouteCommandHandler{uowFactory: uowFactory}
}

func (h *DeleteRouteCommandHandler) Handle(ctx context.Context, cmd DeleteRouteCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := cmd.Actor().RequireManager("delete route"); err != nil {
		return err
	}

	return inTx(ctx, h.uowFactory.Create, func(uow UoW) error {
		routes := uow.RouteRepository()
		if _, err := routes.GetForUpdate(ctx, cmd.RouteID()); err != nil {
			return err
		}
		return routes.Delete(ctx, cmd.RouteID())
	})
}
