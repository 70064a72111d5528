package commands_test

import (
	"sync"
	"testing"
	"time"

	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransitionPackageCommand(t *testing.T) {
	manager, _ := kernel.NewActor("tg-1", kernel.RoleManager)

	t.Run("pending_is_not_a_target", func(t *testing.T) {
		_, err := commands.NewTransitionPackageCommand(kernel.NewUUID(), shipment.Pending, deliveredProof(), manager)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("failed_requires_notes_and_photo", func(t *testing.T) {
		_, err := commands.NewTransitionPackageCommand(kernel.NewUUID(), shipment.Failed, shipment.ProofInput{}, manager)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestTransitionPackageCommandHandler_Handle(t *testing.T) {
	t.Run("last_package_completes_route", func(t *testing.T) {
		f := newFixture(t)
		d := f.addDriver("tg-5512", "Ana", kernel.RoleDriver, "none", "0")
		driverID := d.ID()
		routeID, ids := f.addRoute(&driverID, "BR000000001", "BR000000002")
		ana := f.driverActor("tg-5512")

		first, err := f.deliver(ids[0], ana)
		require.NoError(t, err)
		assert.False(t, first.RouteCompleted)

		f.clock.Advance(time.Hour)
		cmd, err := commands.NewTransitionPackageCommand(ids[1], shipment.Failed, failedProof(), ana)
		require.NoError(t, err)
		h := f.transitionHandler()
		last, err := h.Handle(t.Context(), cmd)

		require.NoError(t, err)
		assert.True(t, last.RouteCompleted)
		assert.Equal(t, shipment.Failed, last.Status)
		assert.Equal(t, &driverID, last.Proof.DriverID)

		r, err := f.store.Create().RouteRepository().Get(t.Context(), routeID)
		require.NoError(t, err)
		assert.Equal(t, route.Completed, r.Status())
		require.NotNil(t, r.CompletedAt())
		assert.Equal(t, testNow.Add(time.Hour), *r.CompletedAt())
		assert.Equal(t, 2, f.store.Counts().Proofs)
	})

	t.Run("terminal_package_cannot_move_again", func(t *testing.T) {
		f := newFixture(t)
		_, ids := f.addRoute(nil, "BR000000001", "BR000000002")
		_, err := f.deliver(ids[0], f.manager)
		require.NoError(t, err)

		_, err = f.deliver(ids[0], f.manager)

		require.ErrorIs(t, err, errs.ErrInvalidTransition)
		assert.Equal(t, 1, f.store.Counts().Proofs)
	})

	t.Run("driver_of_another_route_is_not_permitted", func(t *testing.T) {
		f := newFixture(t)
		ana := f.addDriver("tg-5512", "Ana", kernel.RoleDriver, "none", "0")
		f.addDriver("tg-7000", "Bruno", kernel.RoleDriver, "none", "0")
		anaID := ana.ID()
		_, ids := f.addRoute(&anaID, "BR000000001")

		_, err := f.deliver(ids[0], f.driverActor("tg-7000"))

		require.ErrorIs(t, err, errs.ErrActorNotPermitted)
		p, err := f.store.Create().PackageRepository().Get(t.Context(), ids[0])
		require.NoError(t, err)
		assert.Equal(t, shipment.Pending, p.Status())
	})

	t.Run("unknown_package", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.deliver(kernel.NewUUID(), f.manager)
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("lost_update_is_retried_once", func(t *testing.T) {
		f := newFixture(t)
		_, ids := f.addRoute(nil, "BR000000001", "BR000000002")
		f.store.FailNext("PackageRepository.Update", transient())

		res, err := f.deliver(ids[0], f.manager)

		require.NoError(t, err)
		assert.Equal(t, shipment.Delivered, res.Status)
		assert.Equal(t, 1, f.store.Counts().Proofs)
	})

	t.Run("second_transient_failure_is_returned", func(t *testing.T) {
		f := newFixture(t)
		_, ids := f.addRoute(nil, "BR000000001")
		f.store.FailNext("PackageRepository.Update", transient())
		f.store.FailNext("PackageRepository.Update", transient())

		_, err := f.deliver(ids[0], f.manager)

		require.ErrorIs(t, err, errs.ErrTransientStore)
		assert.Zero(t, f.store.Counts().Proofs)
	})

	t.Run("concurrent_last_deliveries_complete_route_once", func(t *testing.T) {
		f := newFixture(t)
		routeID, ids := f.addRoute(nil, "BR000000001", "BR000000002", "BR000000003", "BR000000004")

		results := make([]commands.PackageTransitionResult, len(ids))
		errList := make([]error, len(ids))
		var wg sync.WaitGroup
		for i, id := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				cmd, err := commands.NewTransitionPackageCommand(id, shipment.Delivered, deliveredProof(), f.manager)
				if err != nil {
					errList[i] = err
					return
				}
				h := f.transitionHandler()
				results[i], errList[i] = h.Handle(t.Context(), cmd)
			}()
		}
		wg.Wait()

		completed := 0
		for i := range ids {
			require.NoError(t, errList[i])
			if results[i].RouteCompleted {
				completed++
			}
		}
		assert.Equal(t, 1, completed)
		r, err := f.store.Create().RouteRepository().Get(t.Context(), routeID)
		require.NoError(t, err)
		assert.Equal(t, route.Completed, r.Status())
	})
}
