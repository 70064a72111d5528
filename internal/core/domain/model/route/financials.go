package route

import (
	"errors"

	"lastmile/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// Financials holds the per-route money and distance fields. Every field exists from
// creation and stays unset (Valid == false) until the route is finalized.
type Financials struct {
	Revenue       decimal.NullDecimal
	TotalExpenses decimal.NullDecimal
	NetProfit     decimal.NullDecimal
	CalculatedKm  decimal.NullDecimal
	ExtraExpenses decimal.NullDecimal
	ExtraIncome   decimal.NullDecimal
	DriverSalary  decimal.NullDecimal
}

// FrozenFinancials is the fully populated outcome written at finalization.
type FrozenFinancials struct {
	Revenue       decimal.Decimal
	TotalExpenses decimal.Decimal
	NetProfit     decimal.Decimal
	CalculatedKm  decimal.Decimal
	ExtraExpenses decimal.Decimal
	ExtraIncome   decimal.Decimal
	DriverSalary  decimal.Decimal
}

// Frozen returns the populated values, or a ValueIsRequiredError per unset field.
// It never substitutes zero for a missing value.
func (f Financials) Frozen() (FrozenFinancials, error) {
	fields := []struct {
		name  string
		value decimal.NullDecimal
	}{
		{"revenue", f.Revenue},
		{"total_expenses", f.TotalExpenses},
		{"net_profit", f.NetProfit},
		{"calculated_km", f.CalculatedKm},
		{"extra_expenses", f.ExtraExpenses},
		{"extra_income", f.ExtraIncome},
		{"driver_salary", f.DriverSalary},
	}

	var errList []error
	for _, field := range fields {
		if !field.value.Valid {
			errList = append(errList, errs.NewValueIsRequiredError("route."+field.name))
		}
	}
	if err := errors.Join(errList...); err != nil {
		return FrozenFinancials{}, err
	}

	return FrozenFinancials{
		Revenue:       f.Revenue.Decimal,
		TotalExpenses: f.TotalExpenses.Decimal,
		NetProfit:     f.NetProfit.Decimal,
		CalculatedKm:  f.CalculatedKm.Decimal,
		ExtraExpenses: f.ExtraExpenses.Decimal,
		ExtraIncome:   f.ExtraIncome.Decimal,
		DriverSalary:  f.DriverSalary.Decimal,
	}, nil
}

// IsUnset reports whether no financial field has been written yet.
func (f Financials) IsUnset() bool {
	return !f.Revenue.Valid && !f.TotalExpenses.Valid && !f.NetProfit.Valid && !f.CalculatedKm.Valid &&
		!f.ExtraExpenses.Valid && !f.ExtraIncome.Valid && !f.DriverSalary.Valid
}

func (f FrozenFinancials) toNullable() Financials {
	return Financials{
		Revenue:       decimal.NewNullDecimal(f.Revenue),
		TotalExpenses: decimal.NewNullDecimal(f.TotalExpenses),
		NetProfit:     decimal.NewNullDecimal(f.NetProfit),
		CalculatedKm:  decimal.NewNullDecimal(f.CalculatedKm),
		ExtraExpenses: decimal.NewNullDecimal(f.ExtraExpenses),
		ExtraIncome:   decimal.NewNullDecimal(f.ExtraIncome),
		DriverSalary:  decimal.NewNullDecimal(f.DriverSalary),
	}
}
