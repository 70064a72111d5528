package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/pkg/clock"
)

// CreateRouteCommandHandler creates routes and their packages in one unit of work.
// With strictCoordinates, package coordinates must also lie inside the service area.
type CreateRouteCommandHandler struct {
	uowFactory        UoWFactory
	clock             clock.Clock
	strictCoordinates bool
}

func NewCreateRouteCommandHandler(uowFactory UoWFactory, clk clock.Clock, strictCoordinates bool) CreateRouteCommandHandler {
	return CreateRouteCommandHandler{uowFactory: uowFactory, clock: clk, strictCoordinates: strictCoordinates}
}

func (h *CreateRouteCommandHandler) Handle(ctx context.Context, cmd CreateRouteCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := cmd.Actor().RequireManager("create route"); err != nil {
		return err
	}

	now := h.clock.Now()
	r, err := route.NewRoute(cmd.RouteID(), cmd.Name(), cmd.DriverID(), now)
	if err != nil {
		return err
	}
	packages, err := h.buildPackages(cmd.RouteID(), cmd.Packages(), now)
	if err != nil {
		return err
	}

	return inTx(ctx, h.uowFactory.Create, func(uow UoW) error {
		if id := cmd.DriverID(); id != nil {
			if _, err := uow.DriverRepository().Get(ctx, *id); err != nil {
				return err
			}
		}
		if err := uow.RouteRepository().Add(ctx, r); err != nil {
			return err
		}
		if len(packages) == 0 {
			return nil
		}
		return uow.PackageRepository().AddAll(ctx, packages)
	})
}

func (h *CreateRouteCommandHandler) buildPackages(routeID kernel.UUID, inputs []PackageInput,
	now time.Time) ([]*shipment.Package, error) {
	packages := make([]*shipment.Package, 0, len(inputs))
	var errList []error
	for i, in := range inputs {
		point, err := kernel.ParseGeoPoint(in.Lat, in.Lon, h.strictCoordinates)
		if err != nil {
			errList = append(errList, fmt.Errorf("package %s: %w", in.TrackingCode, err))
			continue
		}
		p, err := shipment.NewPackage(kernel.NewUUID(), routeID, i+1, in.TrackingCode, shipment.Destination{
			Address:      in.Address,
			Neighborhood: in.Neighborhood,
			Phone:        in.Phone,
			Point:        point,
		}, now)
		if err != nil {
			errList = append(errList, fmt.Errorf("package %s: %w", in.TrackingCode, err))
			continue
		}
		packages = append(packages, p)
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}
	return packages, nil
}
