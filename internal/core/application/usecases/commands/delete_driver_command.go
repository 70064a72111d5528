package commands

import (
	"errors"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/guard"
)

var ErrDeleteDriverCommandIsNotConstructed = errors.New(
	"DeleteDriverCommand must be created via NewDeleteDriverCommand constructor",
)

// DeleteDriverCommand removes a driver while keeping its delivery history.
type DeleteDriverCommand struct { //nolint:recvcheck //using for validation
	driverID kernel.UUID
	actor    kernel.Actor

	guard guard.ConstructorGuard
}

func NewDeleteDriverCommand(driverID kernel.UUID, actor kernel.Actor) (DeleteDriverCommand, error) {
	if err := errors.Join(driverID.Validate(), actor.Validate()); err != nil {
		return DeleteDriverCommand{}, err
	}
	return DeleteDriverCommand{driverID: driverID, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (c DeleteDriverCommand) Validate() error {
	return c.guard.Validate(ErrDeleteDriverCommandIsNotConstructed)
}

func (c DeleteDriverCommand) DriverID() kernel.UUID { return c.driverID }
func (c DeleteDriverCommand) Actor() kernel.Actor   { return c.actor }
