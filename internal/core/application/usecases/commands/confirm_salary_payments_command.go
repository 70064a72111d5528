package commands

import (
	"errors"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
	"lastmile/internal/pkg/guard"
)

var ErrConfirmSalaryPaymentsCommandIsNotConstructed = errors.New(
	"ConfirmSalaryPaymentsCommand must be created via NewConfirmSalaryPaymentsCommand constructor",
)

// ConfirmSalaryPaymentsCommand marks one or many salary payments paid.
type ConfirmSalaryPaymentsCommand struct { //nolint:recvcheck //using for validation
	paymentIDs []kernel.UUID
	actor      kernel.Actor

	guard guard.ConstructorGuard
}

func NewConfirmSalaryPaymentsCommand(paymentIDs []kernel.UUID, actor kernel.Actor) (ConfirmSalaryPaymentsCommand, error) {
	errList := []error{actor.Validate()}
	if len(paymentIDs) == 0 {
		errList = append(errList, errs.NewValueIsRequiredError("payment ids"))
	}
	for _, id := range paymentIDs {
		errList = append(errList, id.Validate())
	}
	if err := errors.Join(errList...); err != nil {
		return ConfirmSalaryPaymentsCommand{}, err
	}

	ids := make([]kernel.UUID, len(paymentIDs))
	copy(ids, paymentIDs)
	return ConfirmSalaryPaymentsCommand{paymentIDs: ids, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (c ConfirmSalaryPaymentsCommand) Validate() error {
	return c.guard.Validate(ErrConfirmSalaryPaymentsCommandIsNotConstructed)
}

func (c ConfirmSalaryPaymentsCommand) PaymentIDs() []kernel.UUID {
	out := make([]kernel.UUID, len(c.paymentIDs))
	copy(out, c.paymentIDs)
	return out
}

func (c ConfirmSalaryPaymentsCommand) Actor() kernel.Actor { return c.actor }
