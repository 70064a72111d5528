package commands

import (
	"errors"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/guard"
)

var ErrCompleteRouteCommandIsNotConstructed = errors.New(
	"CompleteRouteCommand must be created via NewCompleteRouteCommand constructor",
)

// CompleteRouteCommand is the manual manager action closing a route whose packages
// are all delivered or failed.
type CompleteRouteCommand struct { //nolint:recvcheck //using for validation
	routeID kernel.UUID
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

func NewCompleteRouteCommand(routeID kernel.UUID, actor kernel.Actor) (CompleteRouteCommand, error) {
	if err := errors.Join(routeID.Validate(), actor.Validate()); err != nil {
		return CompleteRouteCommand{}, err
	}
	return CompleteRouteCommand{routeID: routeID, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (c CompleteRouteCommand) Validate() error {
	return c.guard.Validate(ErrCompleteRouteCommandIsNotConstructed)
}

func (c CompleteRouteCommand) RouteID() kernel.UUID { return c.routeID }
func (c CompleteRouteCommand) Actor() kernel.Actor  { return c.actor }
