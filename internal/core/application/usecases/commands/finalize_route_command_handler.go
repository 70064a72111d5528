package commands

import (
	"context"
	"errors"

	"lastmile/internal/core/domain/model/finance"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/salary"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/core/domain/services"
	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/clock"
	"lastmile/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// FinalizeRouteResult is the outcome of a finalization.
type FinalizeRouteResult struct {
	Route      route.Snapshot
	Settlement services.Settlement
	// SalaryPaymentID is set when a salary payment was created for the driver.
	SalaryPaymentID *kernel.UUID
}

// FinalizeRouteCommandHandler freezes a completed route's financial outcome.
//
// In one unit of work it:
//  1. locks the route and rejects a second finalization with *errs.AlreadyFinalizedError
//  2. settles the route through the Ledger from its expense, income and mileage rows
//  3. stores the frozen fields on the route
//  4. creates one pending salary payment for the driver when the salary is positive,
//     due on the next payday
//
// Example:
//
//	handler := NewFinalizeRouteCommandHandler(uowFactory, services.NewLedger(), calendar, clock.System())
//	result, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrAlreadyFinalized) {
//	    // nothing was written
//	}
type FinalizeRouteCommandHandler struct {
	uowFactory UoWFactory
	ledger     services.Ledger
	calendar   services.PaymentCalendar
	clock      clock.Clock
}

func NewFinalizeRouteCommandHandler(uowFactory UoWFactory, ledger services.Ledger, calendar services.PaymentCalendar,
	clk clock.Clock) FinalizeRouteCommandHandler {
	return FinalizeRouteCommandHandler{uowFactory: uowFactory, ledger: ledger, calendar: calendar, clock: clk}
}

func (h *FinalizeRouteCommandHandler) Handle(ctx context.Context, cmd FinalizeRouteCommand) (FinalizeRouteResult, error) {
	if err := cmd.Validate(); err != nil {
		return FinalizeRouteResult{}, err
	}
	if err := cmd.Actor().RequireManager("finalize route"); err != nil {
		return FinalizeRouteResult{}, err
	}

	var result FinalizeRouteResult
	err := inTx(ctx, h.uowFactory.Create, func(uow UoW) error {
		var err error
		result, err = h.finalize(ctx, uow, cmd)
		return err
	})
	if err != nil {
		return FinalizeRouteResult{}, err
	}
	return result, nil
}

func (h *FinalizeRouteCommandHandler) finalize(ctx context.Context, uow UoW, cmd FinalizeRouteCommand) (FinalizeRouteResult, error) {
	now := h.clock.Now()
	inputs := cmd.Inputs()
	routes := uow.RouteRepository()

	r, err := routes.GetForUpdate(ctx, cmd.RouteID())
	if err != nil {
		return FinalizeRouteResult{}, err
	}
	switch r.Status() {
	case route.Finalized:
		return FinalizeRouteResult{}, errs.NewAlreadyFinalizedError(r.ID().String())
	case route.Active:
		return FinalizeRouteResult{}, errs.NewInvalidTransitionError("route", r.ID().String(),
			r.Status().String(), route.Finalized.String())
	}

	calculatedKm, err := h.calculatedKm(ctx, uow, r.ID(), inputs)
	if err != nil {
		return FinalizeRouteResult{}, err
	}
	driverSalary, err := h.driverSalary(ctx, uow, r, inputs.DriverSalary)
	if err != nil {
		return FinalizeRouteResult{}, err
	}

	in, err := settlementInput(ctx, uow.FinanceRepository(), r.ID())
	if err != nil {
		return FinalizeRouteResult{}, err
	}
	in.CalculatedKm = decimal.NewNullDecimal(calculatedKm)
	in.ExtraIncome = decimal.NewNullDecimal(inputs.ExtraIncome)
	in.ExtraExpenses = decimal.NewNullDecimal(inputs.ExtraExpenses)
	in.DriverSalary = decimal.NewNullDecimal(driverSalary)

	settlement, err := h.ledger.Settle(in)
	if err != nil {
		return FinalizeRouteResult{}, err
	}

	previous := r.Status()
	if err = r.Finalize(settlement.Frozen(), cmd.Actor(), now); err != nil {
		return FinalizeRouteResult{}, err
	}
	if err = routes.Update(ctx, r, previous); err != nil {
		return FinalizeRouteResult{}, err
	}

	result := FinalizeRouteResult{Route: r.Snapshot(), Settlement: settlement}
	if r.DriverID() == nil || !driverSalary.IsPositive() {
		return result, nil
	}

	payments := uow.SalaryPaymentRepository()
	exists, err := payments.ExistsForRoute(ctx, r.ID(), *r.DriverID())
	if err != nil {
		return FinalizeRouteResult{}, err
	}
	if exists {
		return FinalizeRouteResult{}, errs.NewAlreadyFinalizedError(r.ID().String())
	}

	routeID := r.ID()
	payment, err := salary.NewPayment(kernel.NewUUID(), *r.DriverID(), &routeID, driverSalary,
		h.calendar.NextDueDate(now), now)
	if err != nil {
		return FinalizeRouteResult{}, err
	}
	if err = payments.Add(ctx, payment); err != nil {
		return FinalizeRouteResult{}, err
	}

	paymentID := payment.ID()
	result.SalaryPaymentID = &paymentID
	return result, nil
}

func (h *FinalizeRouteCommandHandler) calculatedKm(ctx context.Context, uow UoW, routeID kernel.UUID,
	inputs FinancialInputs) (decimal.Decimal, error) {
	switch {
	case inputs.KmStart.Valid:
		return finance.OdometerDistance(inputs.KmStart.Decimal, inputs.KmEnd.Decimal)
	case inputs.GpsKm.Valid:
		return inputs.GpsKm.Decimal, nil
	default:
		proofs, err := uow.ProofRepository().ListByRoute(ctx, routeID)
		if err != nil {
			return decimal.Zero, err
		}
		points := make([]kernel.GeoPoint, 0, len(proofs))
		for _, p := range proofs {
			if p.Location() != nil {
				points = append(points, *p.Location())
			}
		}
		return h.ledger.TrailKm(points)
	}
}

func (h *FinalizeRouteCommandHandler) driverSalary(ctx context.Context, uow UoW, r *route.Route,
	entered decimal.NullDecimal) (decimal.Decimal, error) {
	if r.DriverID() == nil {
		if entered.Valid && entered.Decimal.IsPositive() {
			return decimal.Zero, errs.NewValueIsInvalidErrorWithCause("driver_salary",
				errors.New("route has no assigned driver"))
		}
		return h.ledger.ResolveDriverSalary(entered, nil, 0)
	}

	if entered.Valid {
		return h.ledger.ResolveDriverSalary(entered, nil, 0)
	}

	d, err := uow.DriverRepository().Get(ctx, *r.DriverID())
	if err != nil {
		return decimal.Zero, err
	}
	delivered, err := uow.PackageRepository().CountByStatus(ctx, r.ID(), shipment.Delivered)
	if err != nil {
		return decimal.Zero, err
	}
	rate := d.PayRate()
	return h.ledger.ResolveDriverSalary(entered, &rate, delivered)
}

// settlementInput loads the route-linked rows the Ledger sums.
func settlementInput(ctx context.Context, repo ports.FinanceRepository,
	routeID kernel.UUID) (services.SettlementInput, error) {
	expenses, err := repo.ListExpensesByRoute(ctx, routeID)
	if err != nil {
		return services.SettlementInput{}, err
	}
	incomes, err := repo.ListIncomesByRoute(ctx, routeID)
	if err != nil {
		return services.SettlementInput{}, err
	}
	mileages, err := repo.ListMileagesByRoute(ctx, routeID)
	if err != nil {
		return services.SettlementInput{}, err
	}

	in := services.SettlementInput{
		IncomeAmounts:  make([]decimal.Decimal, 0, len(incomes)),
		ExpenseAmounts: make([]decimal.Decimal, 0, len(expenses)),
		MileageKm:      make([]decimal.Decimal, 0, len(mileages)),
	}
	for _, e := range expenses {
		in.ExpenseAmounts = append(in.ExpenseAmounts, e.Amount)
	}
	for _, i := range incomes {
		in.IncomeAmounts = append(in.IncomeAmounts, i.Amount)
	}
	for _, m := range mileages {
		in.MileageKm = append(in.MileageKm, m.Distance)
	}
	return in, nil
}
