package commands_test

import (
	"testing"
	"time"

	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteRouteCommandHandler_Handle(t *testing.T) {
	complete := func(f *fixture, routeID kernel.UUID, actor kernel.Actor) (route.Snapshot, error) {
		cmd, err := commands.NewCompleteRouteCommand(routeID, actor)
		require.NoError(t, err)
		h := commands.NewCompleteRouteCommandHandler(uowFactory{f.store}, f.clock)
		return h.Handle(t.Context(), cmd)
	}

	t.Run("pending_packages_block_completion", func(t *testing.T) {
		f := newFixture(t)
		routeID, _ := f.addRoute(nil, "BR000000001")

		_, err := complete(f, routeID, f.manager)

		require.ErrorIs(t, err, errs.ErrInvalidTransition)
	})

	t.Run("second_completion_keeps_completed_at", func(t *testing.T) {
		f := newFixture(t)
		routeID, _ := f.addRoute(nil)

		first, err := complete(f, routeID, f.manager)
		require.NoError(t, err)
		f.clock.Advance(2 * time.Hour)
		second, err := complete(f, routeID, f.manager)
		require.NoError(t, err)

		assert.Equal(t, route.Completed, second.Status)
		require.NotNil(t, second.CompletedAt)
		assert.Equal(t, *first.CompletedAt, *second.CompletedAt)
	})

	t.Run("finalized_route_is_returned_unchanged", func(t *testing.T) {
		f := newFixture(t)
		routeID, _ := f.addRoute(nil)
		_, err := complete(f, routeID, f.manager)
		require.NoError(t, err)
		_, err = f.finalize(routeID, odometer(100, 110))
		require.NoError(t, err)

		snap, err := complete(f, routeID, f.manager)

		require.NoError(t, err)
		assert.Equal(t, route.Finalized, snap.Status)
	})

	t.Run("drivers_cannot_complete_routes", func(t *testing.T) {
		f := newFixture(t)
		routeID, _ := f.addRoute(nil)

		_, err := complete(f, routeID, f.driverActor("tg-5512"))

		require.ErrorIs(t, err, errs.ErrActorNotPermitted)
	})
}
