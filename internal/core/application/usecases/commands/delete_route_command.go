package commands

import (
	"errors"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/guard"
)

var ErrDeleteRouteCommandIsNotConstructed = errors.New(
	"DeleteRouteCommand must be created via NewDeleteRouteCommand constructor",
)

type DeleteRouteCommand struct { //nolint:recvcheck //using for validation
	routeID kernel.UUID
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

func NewDeleteRouteCommand(routeID kernel.UUID, actor kernel.Actor) (DeleteRouteCommand, error) {
	if err := errors.Join(routeID.Validate(), actor.Validate()); err != nil {
		return DeleteRouteCommand{}, err
	}
	return DeleteRouteCommand{routeID: routeID, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (c DeleteRouteCommand) Validate() error {
	return c.guard.Validate(ErrDeleteRouteCommandIsNotConstructed)
}

func (c DeleteRouteCommand) RouteID() kernel.UUID { return c.routeID }
func (c DeleteRouteCommand) Actor() kernel.Actor  { return c.actor }
