package commands_test

import (
	"testing"

	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/finance"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/salary"
	"lastmile/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinancialInputs_Validate(t *testing.T) {
	tests := []struct {
		name    string
		inputs  commands.FinancialInputs
		wantErr error
	}{
		{"odometer_pair", odometer(100, 160), nil},
		{"no_km_source", commands.FinancialInputs{}, errs.ErrValueIsRequired},
		{"odometer_end_below_start", odometer(160, 100), errs.ErrValueIsInvalid},
		{"half_odometer_pair", commands.FinancialInputs{
			KmStart: decimal.NewNullDecimal(decimal.NewFromInt(100)),
		}, errs.ErrValueIsRequired},
		{"two_km_sources", commands.FinancialInputs{
			GpsKm:         decimal.NewNullDecimal(decimal.NewFromInt(12)),
			UseProofTrail: true,
		}, errs.ErrValueIsInvalid},
		{"negative_extra", commands.FinancialInputs{
			UseProofTrail: true,
			ExtraIncome:   decimal.NewFromInt(-1),
		}, errs.ErrValueIsInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.inputs.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// completedRoute returns a completed route assigned to a per-package driver with one
// delivered package.
func completedRoute(f *fixture, kind driver.RateKind, amount string) (kernel.UUID, *driver.Driver) {
	f.t.Helper()
	d := f.addDriver("tg-5512", "Ana", kernel.RoleDriver, kind, amount)
	driverID := d.ID()
	routeID, ids := f.addRoute(&driverID, "BR000000001")
	_, err := f.deliver(ids[0], f.manager)
	require.NoError(f.t, err)
	return routeID, d
}

func (f *fixture) addRouteIncome(routeID kernel.UUID, amount string) {
	f.t.Helper()
	cmd, err := commands.NewAddIncomeCommand(kernel.NewUUID(), &routeID, finance.IncomeDelivery,
		decimal.RequireFromString(amount), "client payout", kernel.NewDate(2026, 3, 4), f.manager)
	require.NoError(f.t, err)
	h := commands.NewLedgerEntryCommandHandler(ledgerUoWFactory{f.store}, f.clock)
	require.NoError(f.t, h.HandleIncome(f.t.Context(), cmd))
}

func (f *fixture) addRouteExpense(routeID *kernel.UUID, amount string) error {
	f.t.Helper()
	cmd, err := commands.NewAddExpenseCommand(kernel.NewUUID(), routeID, finance.ExpenseFuel,
		decimal.RequireFromString(amount), "fuel", kernel.NewDate(2026, 3, 4), f.manager)
	require.NoError(f.t, err)
	h := commands.NewLedgerEntryCommandHandler(ledgerUoWFactory{f.store}, f.clock)
	return h.HandleExpense(f.t.Context(), cmd)
}

func TestFinalizeRouteCommandHandler_Handle(t *testing.T) {
	t.Run("settles_route_and_creates_payment", func(t *testing.T) {
		f := newFixture(t)
		routeID, d := completedRoute(f, driver.RateNone, "0")
		f.addRouteIncome(routeID, "150")
		require.NoError(t, f.addRouteExpense(&routeID, "40"))

		in := odometer(100, 160)
		in.ExtraIncome = decimal.NewFromInt(50)
		in.ExtraExpenses = decimal.NewFromInt(20)
		in.DriverSalary = decimal.NewNullDecimal(decimal.NewFromInt(50))
		res, err := f.finalize(routeID, in)

		require.NoError(t, err)
		requireDecimal(t, "200", res.Settlement.Revenue)
		requireDecimal(t, "60", res.Settlement.TotalExpenses)
		requireDecimal(t, "90", res.Settlement.NetProfit)
		requireDecimal(t, "60", res.Settlement.KmTotal)
		require.True(t, res.Settlement.CostPerKm.Valid)
		requireDecimal(t, "1.8333", res.Settlement.CostPerKm.Decimal)
		assert.Equal(t, route.Finalized, res.Route.Status)
		assert.Equal(t, f.manager.ID(), res.Route.FinalizedBy)

		require.NotNil(t, res.SalaryPaymentID)
		p, err := f.store.Create().SalaryPaymentRepository().Get(t.Context(), *res.SalaryPaymentID)
		require.NoError(t, err)
		assert.Equal(t, d.ID(), p.DriverID())
		assert.Equal(t, salary.Pending, p.Status())
		requireDecimal(t, "50", p.Amount())
		assert.Equal(t, kernel.NewDate(2026, 3, 6), p.DueDate())
	})

	t.Run("second_finalization_is_rejected", func(t *testing.T) {
		f := newFixture(t)
		routeID, _ := completedRoute(f, driver.RatePerRoute, "120")
		first, err := f.finalize(routeID, odometer(100, 160))
		require.NoError(t, err)

		in := odometer(100, 999)
		in.ExtraIncome = decimal.NewFromInt(1000)
		_, err = f.finalize(routeID, in)

		require.ErrorIs(t, err, errs.ErrAlreadyFinalized)
		assert.Equal(t, 1, f.store.Counts().Payments)
		r, err := f.store.Create().RouteRepository().Get(t.Context(), routeID)
		require.NoError(t, err)
		require.True(t, r.Financials().NetProfit.Valid)
		requireDecimal(t, first.Settlement.NetProfit.String(), r.Financials().NetProfit.Decimal)
		requireDecimal(t, "60", r.Financials().CalculatedKm.Decimal)
	})

	t.Run("salary_falls_back_to_pay_rate", func(t *testing.T) {
		f := newFixture(t)
		routeID, _ := completedRoute(f, driver.RatePerPackage, "3.50")

		res, err := f.finalize(routeID, odometer(100, 110))

		require.NoError(t, err)
		requireDecimal(t, "3.50", res.Settlement.DriverSalary)
		requireDecimal(t, "-3.50", res.Settlement.NetProfit)
		require.NotNil(t, res.SalaryPaymentID)
	})

	t.Run("mileage_rows_take_precedence", func(t *testing.T) {
		f := newFixture(t)
		routeID, _ := completedRoute(f, driver.RateNone, "0")
		cmd, err := commands.NewAddMileageCommand(kernel.NewUUID(), routeID, commands.MileageReading{
			Distance: decimal.NewNullDecimal(decimal.RequireFromString("42.5")),
		}, kernel.NewDate(2026, 3, 4), "", f.manager)
		require.NoError(t, err)
		h := commands.NewLedgerEntryCommandHandler(ledgerUoWFactory{f.store}, f.clock)
		require.NoError(t, h.HandleMileage(t.Context(), cmd))

		res, err := f.finalize(routeID, commands.FinancialInputs{GpsKm: decimal.NewNullDecimal(decimal.NewFromInt(80))})

		require.NoError(t, err)
		requireDecimal(t, "42.5", res.Settlement.KmTotal)
		assert.Nil(t, res.SalaryPaymentID)
	})

	t.Run("active_route_cannot_be_finalized", func(t *testing.T) {
		f := newFixture(t)
		routeID, _ := f.addRoute(nil, "BR000000001")

		_, err := f.finalize(routeID, odometer(100, 110))

		require.ErrorIs(t, err, errs.ErrInvalidTransition)
	})

	t.Run("unassigned_route_earns_no_salary", func(t *testing.T) {
		f := newFixture(t)
		routeID, _ := f.addRoute(nil)
		_, err := commandsComplete(f, routeID)
		require.NoError(t, err)

		in := odometer(100, 110)
		in.DriverSalary = decimal.NewNullDecimal(decimal.NewFromInt(30))
		_, err = f.finalize(routeID, in)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)

		res, err := f.finalize(routeID, odometer(100, 110))
		require.NoError(t, err)
		assert.True(t, res.Settlement.DriverSalary.IsZero())
		assert.Zero(t, f.store.Counts().Payments)
	})
}

func TestLedgerEntryCommandHandler_FinalizedRouteRejectsEntries(t *testing.T) {
	f := newFixture(t)
	routeID, _ := completedRoute(f, driver.RateNone, "0")
	_, err := f.finalize(routeID, odometer(100, 110))
	require.NoError(t, err)

	err = f.addRouteExpense(&routeID, "10")

	require.ErrorIs(t, err, errs.ErrAlreadyFinalized)
	assert.Zero(t, f.store.Counts().Expenses)
	require.NoError(t, f.addRouteExpense(nil, "10"), "company-wide expenses need no route")
}

func TestLedgerEntryCommandHandler_DriversCannotRecordEntries(t *testing.T) {
	f := newFixture(t)
	cmd, err := commands.NewAddExpenseCommand(kernel.NewUUID(), nil, finance.ExpenseOther,
		decimal.NewFromInt(5), "", kernel.NewDate(2026, 3, 4), f.driverActor("tg-5512"))
	require.NoError(t, err)
	h := commands.NewLedgerEntryCommandHandler(ledgerUoWFactory{f.store}, f.clock)

	require.ErrorIs(t, h.HandleExpense(t.Context(), cmd), errs.ErrActorNotPermitted)
}

func commandsComplete(f *fixture, routeID kernel.UUID) (route.Snapshot, error) {
	cmd, err := commands.NewCompleteRouteCommand(routeID, f.manager)
	require.NoError(f.t, err)
	h := commands.NewCompleteRouteCommandHandler(uowFactory{f.store}, f.clock)
	return h.Handle(f.t.Context(), cmd)
}
