package commands

import (
	"context"
	"fmt"

	"lastmile/internal/pkg/errs"
)

// DeleteDriverCommandHandler removes drivers.
//
// Routes assigned to the driver are kept and become unassigned; delivery proofs
// keep their content but lose the driver reference. A driver who is still owed or
// was ever paid a salary cannot be removed, because the payment history would vanish.
type DeleteDriverCommandHandler struct {
	uowFactory DriverUoWFactory
}

func NewDeleteDriverCommandHandler(uowFactory DriverUoWFactory) DeleteDriverCommandHandler {
	return DeleteDriverCommandHandler{uowFactory: uowFactory}
}

func (h *DeleteDriverCommandHandler) Handle(ctx context.Context, cmd DeleteDriverCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := cmd.Actor().RequireManager("delete driver"); err != nil {
		return err
	}

	return inTx(ctx, h.uowFactory.Create, func(uow DriverUoW) error {
		if _, err := uow.DriverRepository().Get(ctx, cmd.DriverID()); err != nil {
			return err
		}

		payments, err := uow.SalaryPaymentRepository().CountByDriver(ctx, cmd.DriverID())
		if err != nil {
			return err
		}
		if payments > 0 {
			return errs.NewValueIsInvalidErrorWithCause("driver",
				fmt.Errorf("%d salary payments reference driver %s", payments, cmd.DriverID()))
		}

		return uow.DriverRepository().Delete(ctx, cmd.DriverID())
	})
}
