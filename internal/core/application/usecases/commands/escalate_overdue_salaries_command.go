package commands

import (
	"errors"

	"lastmile/internal/pkg/guard"
)

var ErrEscalateOverdueSalariesCommandIsNotConstructed = errors.New(
	"EscalateOverdueSalariesCommand must be created via NewEscalateOverdueSalariesCommand constructor",
)

// EscalateOverdueSalariesCommand is the daily scheduler run for unpaid payments past due.
type EscalateOverdueSalariesCommand struct {
	guard guard.ConstructorGuard
}

func NewEscalateOverdueSalariesCommand() EscalateOverdueSalariesCommand {
	return EscalateOverdueSalariesCommand{guard: guard.NewConstructorGuard()}
}

func (c EscalateOverdueSalariesCommand) Validate() error {
	return c.guard.Validate(ErrEscalateOverdueSalariesCommandIsNotConstructed)
}
