package commands

import (
	"errors"

	"lastmile/internal/pkg/guard"
)

var ErrNotifyDueSalariesCommandIsNotConstructed = errors.New(
	"NotifyDueSalariesCommand must be created via NewNotifyDueSalariesCommand constructor",
)

// NotifyDueSalariesCommand is the weekly scheduler run for payments due today.
type NotifyDueSalariesCommand struct {
	guard guard.ConstructorGuard
}

func NewNotifyDueSalariesCommand() NotifyDueSalariesCommand {
	return NotifyDueSalariesCommand{guard: guard.NewConstructorGuard()}
}

func (c NotifyDueSalariesCommand) Validate() error {
	return c.guard.Validate(ErrNotifyDueSalariesCommandIsNotConstructed)
}
