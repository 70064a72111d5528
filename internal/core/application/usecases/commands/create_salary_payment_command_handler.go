package commands

import (
	"context"

	"lastmile/internal/core/domain/model/salary"
	"lastmile/internal/pkg/clock"
)

// CreateSalaryPaymentCommandHandler persists ad-hoc salary payments. A payment
// linked to a route counts as that route's payment for the driver, so a second one
// for the same pair is rejected.
type CreateSalaryPaymentCommandHandler struct {
	uowFactory SalaryUoWFactory
	clock      clock.Clock
}

func NewCreateSalaryPaymentCommandHandler(uowFactory SalaryUoWFactory, clk clock.Clock) CreateSalaryPaymentCommandHandler {
	return CreateSalaryPaymentCommandHandler{uowFactory: uowFactory, clock: clk}
}

func (h *CreateSalaryPaymentCommandHandler) Handle(ctx context.Context, cmd CreateSalaryPaymentCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := cmd.Actor().RequireManager("create salary payment"); err != nil {
		return err
	}

	payment, err := salary.NewPayment(cmd.PaymentID(), cmd.DriverID(), cmd.RouteID(), cmd.Amount(), cmd.DueDate(),
		h.clock.Now())
	if err != nil {
		return err
	}

	return inTx(ctx, h.uowFactory.Create, func(uow SalaryUoW) error {
		if _, err := uow.DriverRepository().Get(ctx, cmd.DriverID()); err != nil {
			return err
		}
		if id := cmd.RouteID(); id != nil {
			if _, err := uow.RouteRepository().Get(ctx, *id); err != nil {
				return err
			}
		}
		return uow.SalaryPaymentRepository().Add(ctx, payment)
	})
}
