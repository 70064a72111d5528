package route_test

import (
	"testing"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0         = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
	manager, _ = kernel.NewActor("tg-1", kernel.RoleManager)
)

func newActiveRoute(t *testing.T) *route.Route {
	t.Helper()
	driverID := kernel.NewUUID()
	r, err := route.NewRoute(kernel.NewUUID(), "Zona Sul", &driverID, t0)
	require.NoError(t, err)
	return r
}

func frozen() route.FrozenFinancials {
	return route.FrozenFinancials{
		Revenue:       decimal.NewFromInt(170),
		TotalExpenses: decimal.NewFromInt(40),
		NetProfit:     decimal.NewFromInt(90),
		CalculatedKm:  decimal.NewFromInt(55),
		ExtraExpenses: decimal.NewFromInt(10),
		ExtraIncome:   decimal.NewFromInt(20),
		DriverSalary:  decimal.NewFromInt(40),
	}
}

func TestNewRoute(t *testing.T) {
	t.Run("starts_active_with_unset_financials", func(t *testing.T) {
		r := newActiveRoute(t)

		assert.Equal(t, route.Active, r.Status())
		assert.True(t, r.Financials().IsUnset())
		assert.Nil(t, r.CompletedAt())
		assert.Nil(t, r.FinalizedAt())
		assert.True(t, r.IsAssigned())
	})

	t.Run("requires_name", func(t *testing.T) {
		_, err := route.NewRoute(kernel.NewUUID(), "  ", nil, t0)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestRoute_Complete(t *testing.T) {
	t.Run("is_idempotent_and_sets_completed_at_once", func(t *testing.T) {
		// Given
		r := newActiveRoute(t)

		// When
		changed, err := r.Complete(0, t0.Add(time.Hour))
		require.NoError(t, err)
		first := *r.CompletedAt()

		// Then
		assert.True(t, changed)
		for i := 1; i <= 3; i++ {
			changed, err = r.Complete(0, t0.Add(time.Duration(i+1)*time.Hour))
			require.NoError(t, err)
			assert.False(t, changed)
			assert.Equal(t, first, *r.CompletedAt())
			assert.Equal(t, route.Completed, r.Status())
		}
	})

	t.Run("rejects_pending_packages", func(t *testing.T) {
		r := newActiveRoute(t)

		changed, err := r.Complete(2, t0)

		require.ErrorIs(t, err, errs.ErrInvalidTransition)
		assert.Contains(t, err.Error(), "2 packages are still pending")
		assert.False(t, changed)
		assert.Equal(t, route.Active, r.Status())
	})
}

func TestRoute_Finalize(t *testing.T) {
	t.Run("freezes_financials_once", func(t *testing.T) {
		// Given
		r := newActiveRoute(t)
		_, err := r.Complete(0, t0)
		require.NoError(t, err)

		// When
		err = r.Finalize(frozen(), manager, t0.Add(time.Hour))

		// Then
		require.NoError(t, err)
		assert.Equal(t, route.Finalized, r.Status())
		got, err := r.Financials().Frozen()
		require.NoError(t, err)
		assert.True(t, got.NetProfit.Equal(decimal.NewFromInt(90)))
		assert.Equal(t, "tg-1", r.FinalizedBy())

		// And the second call fails
		other := frozen()
		other.DriverSalary = decimal.NewFromInt(999)
		err = r.Finalize(other, manager, t0.Add(2*time.Hour))
		require.ErrorIs(t, err, errs.ErrAlreadyFinalized)
		got, _ = r.Financials().Frozen()
		assert.True(t, got.DriverSalary.Equal(decimal.NewFromInt(40)))
		assert.Equal(t, t0.Add(time.Hour), *r.FinalizedAt())
	})

	t.Run("active_route_cannot_be_finalized", func(t *testing.T) {
		r := newActiveRoute(t)

		err := r.Finalize(frozen(), manager, t0)

		require.ErrorIs(t, err, errs.ErrInvalidTransition)
	})

	t.Run("finalized_route_rejects_ledger_entries", func(t *testing.T) {
		r := newActiveRoute(t)
		_, _ = r.Complete(0, t0)
		require.NoError(t, r.AcceptsLedgerEntries())
		require.NoError(t, r.Finalize(frozen(), manager, t0))

		require.ErrorIs(t, r.AcceptsLedgerEntries(), errs.ErrAlreadyFinalized)
		require.ErrorIs(t, r.AcceptsPackages(), errs.ErrInvalidTransition)
	})
}

func TestFinancials_Frozen(t *testing.T) {
	t.Run("refuses_unset_fields", func(t *testing.T) {
		f := route.Financials{Revenue: decimal.NewNullDecimal(decimal.NewFromInt(1))}

		_, err := f.Frozen()

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Contains(t, err.Error(), "route.driver_salary")
		assert.NotContains(t, err.Error(), "route.revenue")
	})
}

func TestRestore(t *testing.T) {
	t.Run("snapshot_round_trip", func(t *testing.T) {
		r := newActiveRoute(t)
		_, _ = r.Complete(0, t0)

		restored, err := route.Restore(r.Snapshot())

		require.NoError(t, err)
		assert.Equal(t, r.Snapshot(), restored.Snapshot())
	})

	t.Run("finalized_without_completed_at_is_rejected", func(t *testing.T) {
		s := newActiveRoute(t).Snapshot()
		at := t0
		s.Status = route.Finalized
		s.FinalizedAt = &at

		_, err := route.Restore(s)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}
