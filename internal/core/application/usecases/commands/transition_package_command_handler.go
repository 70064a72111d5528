package commands

import (
	"context"

	"lastmile/internal/pkg/clock"
)

// TransitionPackageCommandHandler delivers or fails one package. When it settles the
// route's last pending package the route is completed in the same unit of work.
//
// Example:
//
//	handler := NewTransitionPackageCommandHandler(uowFactory, clock.System())
//	result, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrInvalidTransition) {
//	    // the package was already delivered or failed
//	}
type TransitionPackageCommandHandler struct {
	uowFactory UoWFactory
	clock      clock.Clock
}

func NewTransitionPackageCommandHandler(uowFactory UoWFactory, clk clock.Clock) TransitionPackageCommandHandler {
	return TransitionPackageCommandHandler{uowFactory: uowFactory, clock: clk}
}

func (h *TransitionPackageCommandHandler) Handle(ctx context.Context,
	cmd TransitionPackageCommand) (PackageTransitionResult, error) {
	if err := cmd.Validate(); err != nil {
		return PackageTransitionResult{}, err
	}

	var result PackageTransitionResult
	err := inTx(ctx, h.uowFactory.Create, func(uow UoW) error {
		var err error
		result, err = transitionPackage(ctx, uow, cmd.PackageID(), cmd.Target(), cmd.Proof(), cmd.Actor(),
			h.clock.Now())
		return err
	})
	if err != nil {
		return PackageTransitionResult{}, err
	}
	return result, nil
}
