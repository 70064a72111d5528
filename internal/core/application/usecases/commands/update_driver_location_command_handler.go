package commands

import (
	"context"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/clock"
	"lastmile/internal/pkg/errs"
)

// UpdateDriverLocationCommandHandler stores the last known location of a driver in the
// injected LocationCache. Drivers may only report their own location.
type UpdateDriverLocationCommandHandler struct {
	uowFactory        DriverUoWFactory
	cache             ports.LocationCache
	clock             clock.Clock
	strictCoordinates bool
}

func NewUpdateDriverLocationCommandHandler(uowFactory DriverUoWFactory, cache ports.LocationCache, clk clock.Clock,
	strictCoordinates bool) UpdateDriverLocationCommandHandler {
	return UpdateDriverLocationCommandHandler{
		uowFactory:        uowFactory,
		cache:             cache,
		clock:             clk,
		strictCoordinates: strictCoordinates,
	}
}

func (h *UpdateDriverLocationCommandHandler) Handle(ctx context.Context, cmd UpdateDriverLocationCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	build := kernel.NewGeoPoint
	if h.strictCoordinates {
		build = kernel.NewServiceAreaGeoPoint
	}
	point, err := build(cmd.Lat(), cmd.Lon())
	if err != nil {
		return err
	}

	err = inTx(ctx, h.uowFactory.Create, func(uow DriverUoW) error {
		d, err := uow.DriverRepository().Get(ctx, cmd.DriverID())
		if err != nil {
			return err
		}
		if !cmd.Actor().IsManager() && d.ExternalID() != cmd.Actor().ID() {
			return errs.NewActorNotPermittedError("update location of another driver", cmd.Actor().ID())
		}
		return nil
	})
	if err != nil {
		return err
	}

	return h.cache.Put(ctx, ports.DriverLocation{
		DriverID:   cmd.DriverID(),
		Point:      point,
		AccuracyM:  cmd.AccuracyM(),
		RecordedAt: h.clock.Now(),
	})
}
