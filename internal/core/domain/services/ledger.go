package services

import (
	"errors"
	"fmt"

	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

const (
	costPerKmPlaces = 4
	distancePlaces  = 2
)

// SettlementInput is a route snapshot as seen by the Ledger. Nullable fields must be
// set explicitly; the Ledger never reads an unset field as zero.
type SettlementInput struct {
	IncomeAmounts  []decimal.Decimal
	ExpenseAmounts []decimal.Decimal
	MileageKm      []decimal.Decimal
	CalculatedKm   decimal.NullDecimal
	ExtraIncome    decimal.NullDecimal
	ExtraExpenses  decimal.NullDecimal
	DriverSalary   decimal.NullDecimal
}

// Settlement is the financial summary of one route.
type Settlement struct {
	Revenue       decimal.Decimal
	TotalExpenses decimal.Decimal
	DriverSalary  decimal.Decimal
	NetProfit     decimal.Decimal
	KmTotal       decimal.Decimal
	ExtraIncome   decimal.Decimal
	ExtraExpenses decimal.Decimal
	// CostPerKm is (TotalExpenses + DriverSalary) / KmTotal, unset when KmTotal is zero.
	CostPerKm decimal.NullDecimal
}

// Frozen converts the settlement into the values stored on a finalized route.
func (s Settlement) Frozen() route.FrozenFinancials {
	return route.FrozenFinancials{
		Revenue:       s.Revenue,
		TotalExpenses: s.TotalExpenses,
		NetProfit:     s.NetProfit,
		CalculatedKm:  s.KmTotal,
		ExtraExpenses: s.ExtraExpenses,
		ExtraIncome:   s.ExtraIncome,
		DriverSalary:  s.DriverSalary,
	}
}

// Ledger is the financial calculator of the engine.
//
// Formulas:
//
//	revenue       = Σ income + extra_income
//	expense_total = Σ expense + extra_expenses
//	profit        = revenue − expense_total − driver_salary
//	km_total      = Σ mileage, or calculated_km when the route has no mileage rows
type Ledger struct{}

func NewLedger() Ledger {
	return Ledger{}
}

// Settle computes the settlement of a route.
//
// Returns:
//   - Settlement: the computed summary
//   - error: ValueIsRequiredError for each unset input the formulas need,
//     ValueIsInvalidError for negative amounts
func (Ledger) Settle(in SettlementInput) (Settlement, error) {
	var errList []error
	require := func(name string, v decimal.NullDecimal) decimal.Decimal {
		if !v.Valid {
			errList = append(errList, errs.NewValueIsRequiredError(name))
			return decimal.Zero
		}
		if v.Decimal.IsNegative() {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause(name, fmt.Errorf("%s is negative", v.Decimal)))
		}
		return v.Decimal
	}

	extraIncome := require("extra_income", in.ExtraIncome)
	extraExpenses := require("extra_expenses", in.ExtraExpenses)
	salary := require("driver_salary", in.DriverSalary)

	var km decimal.Decimal
	if len(in.MileageKm) > 0 {
		km = sum(in.MileageKm)
	} else {
		km = require("calculated_km", in.CalculatedKm)
	}
	if err := errors.Join(errList...); err != nil {
		return Settlement{}, err
	}

	revenue := sum(in.IncomeAmounts).Add(extraIncome)
	expenses := sum(in.ExpenseAmounts).Add(extraExpenses)
	return Settlement{
		Revenue:       revenue,
		TotalExpenses: expenses,
		DriverSalary:  salary,
		NetProfit:     revenue.Sub(expenses).Sub(salary),
		KmTotal:       km,
		ExtraIncome:   extraIncome,
		ExtraExpenses: extraExpenses,
		CostPerKm:     costPerKm(expenses, salary, km),
	}, nil
}

// FromFinalized projects the stored fields of a finalized route without recomputing
// anything from raw rows.
func (Ledger) FromFinalized(f route.Financials) (Settlement, error) {
	frozen, err := f.Frozen()
	if err != nil {
		return Settlement{}, err
	}
	return Settlement{
		Revenue:       frozen.Revenue,
		TotalExpenses: frozen.TotalExpenses,
		DriverSalary:  frozen.DriverSalary,
		NetProfit:     frozen.NetProfit,
		KmTotal:       frozen.CalculatedKm,
		ExtraIncome:   frozen.ExtraIncome,
		ExtraExpenses: frozen.ExtraExpenses,
		CostPerKm:     costPerKm(frozen.TotalExpenses, frozen.DriverSalary, frozen.CalculatedKm),
	}, nil
}

// ResolveDriverSalary picks the manager-entered amount when present, otherwise the
// driver's configured rate. Unassigned routes (rate == nil) earn nothing.
func (Ledger) ResolveDriverSalary(entered decimal.NullDecimal, rate *driver.PayRate, deliveredPackages int) (decimal.Decimal, error) {
	if entered.Valid {
		if entered.Decimal.IsNegative() {
			return decimal.Zero, errs.NewValueIsInvalidErrorWithCause("driver_salary",
				fmt.Errorf("%s is negative", entered.Decimal))
		}
		return entered.Decimal, nil
	}
	if rate == nil {
		return decimal.Zero, nil
	}
	return rate.SalaryFor(deliveredPackages), nil
}

// TrailKm sums great-circle distances along an ordered list of capture positions.
func (Ledger) TrailKm(points []kernel.GeoPoint) (decimal.Decimal, error) {
	total := 0.0
	for i := 1; i < len(points); i++ {
		d, err := points[i-1].DistanceKm(points[i])
		if err != nil {
			return decimal.Zero, err
		}
		total += d
	}
	return decimal.NewFromFloat(total).Round(distancePlaces), nil
}

// ReportLine is one finalized route inside a Report.
type ReportLine struct {
	RouteID    kernel.UUID
	RouteName  string
	Settlement Settlement
}

// FinalizedRoute is the stored state of a finalized route fed into Aggregate.
type FinalizedRoute struct {
	RouteID    kernel.UUID
	RouteName  string
	Financials route.Financials
}

// Report sums frozen route values and company-wide rows over a period.
type Report struct {
	Lines           []ReportLine
	Revenue         decimal.Decimal
	TotalExpenses   decimal.Decimal
	DriverSalaries  decimal.Decimal
	RouteNetProfit  decimal.Decimal
	KmTotal         decimal.Decimal
	CompanyIncome   decimal.Decimal
	CompanyExpenses decimal.Decimal
	// NetProfit is RouteNetProfit + CompanyIncome − CompanyExpenses.
	NetProfit decimal.Decimal
}

// Aggregate builds a Report. It fails when any finalized route has an unset stored
// field, naming the route.
func (l Ledger) Aggregate(routes []FinalizedRoute, companyIncome, companyExpenses []decimal.Decimal) (Report, error) {
	report := Report{Lines: make([]ReportLine, 0, len(routes))}
	for _, r := range routes {
		s, err := l.FromFinalized(r.Financials)
		if err != nil {
			return Report{}, fmt.Errorf("route %s: %w", r.RouteID, err)
		}
		report.Lines = append(report.Lines, ReportLine{RouteID: r.RouteID, RouteName: r.RouteName, Settlement: s})
		report.Revenue = report.Revenue.Add(s.Revenue)
		report.TotalExpenses = report.TotalExpenses.Add(s.TotalExpenses)
		report.DriverSalaries = report.DriverSalaries.Add(s.DriverSalary)
		report.RouteNetProfit = report.RouteNetProfit.Add(s.NetProfit)
		report.KmTotal = report.KmTotal.Add(s.KmTotal)
	}
	report.CompanyIncome = sum(companyIncome)
	report.CompanyExpenses = sum(companyExpenses)
	report.NetProfit = report.RouteNetProfit.Add(report.CompanyIncome).Sub(report.CompanyExpenses)
	return report, nil
}

func sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func costPerKm(expenses, salary, km decimal.Decimal) decimal.NullDecimal {
	if !km.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(expenses.Add(salary).Div(km).Round(costPerKmPlaces))
}
