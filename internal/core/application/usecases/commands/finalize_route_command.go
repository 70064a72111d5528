package commands

import (
	"errors"
	"fmt"

	"lastmile/internal/core/domain/model/finance"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
	"lastmile/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrFinalizeRouteCommandIsNotConstructed = errors.New(
	"FinalizeRouteCommand must be created via NewFinalizeRouteCommand constructor",
)

// FinancialInputs are the manager-entered values of a finalization.
//
// Exactly one kilometer source is used: the odometer pair KmStart/KmEnd, GpsKm, or
// UseProofTrail (distance along the capture positions of the route's delivery proofs).
// Mileage rows recorded on the route take precedence over the source for the ledger.
// DriverSalary, when unset, is resolved from the assigned driver's pay rate.
type FinancialInputs struct {
	KmStart       decimal.NullDecimal
	KmEnd         decimal.NullDecimal
	GpsKm         decimal.NullDecimal
	UseProofTrail bool
	ExtraExpenses decimal.Decimal
	ExtraIncome   decimal.Decimal
	DriverSalary  decimal.NullDecimal
}

// Validate checks the kilometer source and that no amount is negative.
func (in FinancialInputs) Validate() error {
	var errList []error

	sources := 0
	if in.KmStart.Valid || in.KmEnd.Valid {
		sources++
		if !in.KmStart.Valid || !in.KmEnd.Valid {
			errList = append(errList, errs.NewValueIsRequiredError("km_start and km_end must be provided together"))
		} else if _, err := finance.OdometerDistance(in.KmStart.Decimal, in.KmEnd.Decimal); err != nil {
			errList = append(errList, err)
		}
	}
	if in.GpsKm.Valid {
		sources++
		errList = append(errList, nonNegative("gps_km", in.GpsKm.Decimal))
	}
	if in.UseProofTrail {
		sources++
	}
	switch {
	case sources == 0:
		errList = append(errList, errs.NewValueIsRequiredError("km source"))
	case sources > 1:
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("km source",
			fmt.Errorf("%d sources given, expected exactly one", sources)))
	}

	errList = append(errList,
		nonNegative("extra_expenses", in.ExtraExpenses),
		nonNegative("extra_income", in.ExtraIncome),
	)
	if in.DriverSalary.Valid {
		errList = append(errList, nonNegative("driver_salary", in.DriverSalary.Decimal))
	}
	return errors.Join(errList...)
}

// FinalizeRouteCommand freezes the financial outcome of a completed route.
//
// Example:
//
//	cmd, err := NewFinalizeRouteCommand(routeID, FinancialInputs{
//	    KmStart:       decimal.NewNullDecimal(decimal.NewFromInt(12040)),
//	    KmEnd:         decimal.NewNullDecimal(decimal.NewFromInt(12115)),
//	    ExtraExpenses: decimal.RequireFromString("18.50"),
//	}, manager)
type FinalizeRouteCommand struct { //nolint:recvcheck //using for validation
	routeID kernel.UUID
	inputs  FinancialInputs
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

func NewFinalizeRouteCommand(routeID kernel.UUID, inputs FinancialInputs, actor kernel.Actor) (FinalizeRouteCommand, error) {
	if err := errors.Join(routeID.Validate(), inputs.Validate(), actor.Validate()); err != nil {
		return FinalizeRouteCommand{}, err
	}
	return FinalizeRouteCommand{routeID: routeID, inputs: inputs, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (c FinalizeRouteCommand) Validate() error {
	return c.guard.Validate(ErrFinalizeRouteCommandIsNotConstructed)
}

func (c FinalizeRouteCommand) RouteID() kernel.UUID    { return c.routeID }
func (c FinalizeRouteCommand) Inputs() FinancialInputs { return c.inputs }
func (c FinalizeRouteCommand) Actor() kernel.Actor     { return c.actor }

func nonNegative(name string, v decimal.Decimal) error {
	if v.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%s is negative", v))
	}
	return nil
}
