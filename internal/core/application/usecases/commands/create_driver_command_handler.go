package commands

import (
	"context"

	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/pkg/clock"
)

// CreateDriverCommandHandler persists new drivers. Only managers may register drivers.
type CreateDriverCommandHandler struct {
	uowFactory DriverUoWFactory
	clock      clock.Clock
}

func NewCreateDriverCommandHandler(uowFactory DriverUoWFactory, clk clock.Clock) CreateDriverCommandHandler {
	return CreateDriverCommandHandler{uowFactory: uowFactory, clock: clk}
}

// Handle creates the driver. A duplicated external ID is a validation error.
func (h *CreateDriverCommandHandler) Handle(ctx context.Context, cmd CreateDriverCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := cmd.Actor().RequireManager("create driver"); err != nil {
		return err
	}

	d, err := driver.NewDriver(cmd.DriverID(), cmd.ExternalID(), cmd.DisplayName(), cmd.Role(), cmd.PayRate(),
		h.clock.Now())
	if err != nil {
		return err
	}

	return inTx(ctx, h.uowFactory.Create, func(uow DriverUoW) error {
		return uow.DriverRepository().Add(ctx, d)
	})
}
