package finance_test

import (
	"testing"
	"time"

	"lastmile/internal/core/domain/model/finance"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = kernel.NewDate(2026, time.March, 4)

func entry(routeID *kernel.UUID, amount int64) finance.Entry {
	return finance.Entry{
		ID: kernel.NewUUID(), RouteID: routeID, Amount: decimal.NewFromInt(amount),
		OccurredOn: day, CreatedBy: "tg-1", CreatedAt: time.Now(),
	}
}

func TestNewExpense(t *testing.T) {
	t.Run("company_wide_expense", func(t *testing.T) {
		e, err := finance.NewExpense(entry(nil, 30), finance.ExpenseFuel)

		require.NoError(t, err)
		assert.True(t, e.IsCompanyWide())
	})

	t.Run("negative_amount_and_bad_category_are_both_reported", func(t *testing.T) {
		_, err := finance.NewExpense(entry(nil, -1), finance.ExpenseCategory("snacks"))

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Contains(t, err.Error(), "amount")
		assert.Contains(t, err.Error(), "expense category")
	})
}

func TestNewIncome(t *testing.T) {
	routeID := kernel.NewUUID()

	i, err := finance.NewIncome(entry(&routeID, 100), finance.IncomeDelivery)

	require.NoError(t, err)
	assert.False(t, i.IsCompanyWide())
	assert.Equal(t, finance.IncomeDelivery, i.Category)
}

func TestNewMileageFromOdometer(t *testing.T) {
	t.Run("distance_is_end_minus_start", func(t *testing.T) {
		m, err := finance.NewMileageFromOdometer(kernel.NewUUID(), kernel.NewUUID(),
			decimal.RequireFromString("10200.5"), decimal.RequireFromString("10262"), day, "", "tg-1", time.Now())

		require.NoError(t, err)
		assert.Equal(t, "61.5", m.Distance.String())
		assert.True(t, m.KmStart.Valid)
	})

	t.Run("end_below_start_is_invalid", func(t *testing.T) {
		_, err := finance.NewMileageFromOdometer(kernel.NewUUID(), kernel.NewUUID(),
			decimal.NewFromInt(100), decimal.NewFromInt(90), day, "", "tg-1", time.Now())

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestNewMileage(t *testing.T) {
	_, err := finance.NewMileage(kernel.NewUUID(), kernel.UUID{}, decimal.NewFromInt(5), day, "", "tg-1", time.Now())

	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}
