package commands

import (
	"context"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/clock"
)

// LedgerEntryCommandHandler records expense, income and mileage rows.
//
// A route-linked row locks the route first: an entry for a finalized route is
// rejected with *errs.AlreadyFinalizedError, and an entry racing a finalization either
// commits before the finalization reads the rows or sees the route finalized.
type LedgerEntryCommandHandler struct {
	uowFactory LedgerUoWFactory
	clock      clock.Clock
}

func NewLedgerEntryCommandHandler(uowFactory LedgerUoWFactory, clk clock.Clock) LedgerEntryCommandHandler {
	return LedgerEntryCommandHandler{uowFactory: uowFactory, clock: clk}
}

func (h *LedgerEntryCommandHandler) HandleExpense(ctx context.Context, cmd AddExpenseCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := cmd.Actor().RequireManager("add expense"); err != nil {
		return err
	}

	expense := cmd.Expense()
	expense.CreatedAt = h.clock.Now()
	return inTx(ctx, h.uowFactory.Create, func(uow LedgerUoW) error {
		if err := lockOpenRoute(ctx, uow, expense.RouteID); err != nil {
			return err
		}
		return uow.FinanceRepository().AddExpense(ctx, expense)
	})
}

func (h *LedgerEntryCommandHandler) HandleIncome(ctx context.Context, cmd AddIncomeCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := cmd.Actor().RequireManager("add income"); err != nil {
		return err
	}

	income := cmd.Income()
	income.CreatedAt = h.clock.Now()
	return inTx(ctx, h.uowFactory.Create, func(uow LedgerUoW) error {
		if err := lockOpenRoute(ctx, uow, income.RouteID); err != nil {
			return err
		}
		return uow.FinanceRepository().AddIncome(ctx, income)
	})
}

func (h *LedgerEntryCommandHandler) HandleMileage(ctx context.Context, cmd AddMileageCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := cmd.Actor().RequireManager("add mileage"); err != nil {
		return err
	}

	mileage := cmd.Mileage()
	mileage.CreatedAt = h.clock.Now()
	return inTx(ctx, h.uowFactory.Create, func(uow LedgerUoW) error {
		routeID := mileage.RouteID
		if err := lockOpenRoute(ctx, uow, &routeID); err != nil {
			return err
		}
		return uow.FinanceRepository().AddMileage(ctx, mileage)
	})
}

func lockOpenRoute(ctx context.Context, uow LedgerUoW, routeID *kernel.UUID) error {
	if routeID == nil {
		return nil
	}
	r, err := uow.RouteRepository().GetForUpdate(ctx, *routeID)
	if err != nil {
		return err
	}
	return r.AcceptsLedgerEntries()
}
