package commands

import (
	"context"
	"errors"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/pkg/errs"
)

// PackageTransitionResult describes one applied package transition.
type PackageTransitionResult struct {
	PackageID kernel.UUID
	RouteID   kernel.UUID
	Status    shipment.Status
	Proof     shipment.ProofSnapshot
	// RouteCompleted is true when this transition delivered the route's last pending
	// package and moved the route to Completed.
	RouteCompleted bool
}

// transitionPackage applies one package transition inside uow.
//
// Lock order is package row, then route row. The pending count is read after the
// route lock is held, so of two concurrent last deliveries the one that commits
// second sees zero pending packages and completes the route.
func transitionPackage(ctx context.Context, uow UoW, packageID kernel.UUID, target shipment.Status,
	proof shipment.ProofInput, actor kernel.Actor, now time.Time) (PackageTransitionResult, error) {
	packages := uow.PackageRepository()
	routes := uow.RouteRepository()

	pkg, err := packages.GetForUpdate(ctx, packageID)
	if err != nil {
		return PackageTransitionResult{}, err
	}
	r, err := routes.GetForUpdate(ctx, pkg.RouteID())
	if err != nil {
		return PackageTransitionResult{}, err
	}

	driverID, err := authorizePackageActor(ctx, uow, r, actor)
	if err != nil {
		return PackageTransitionResult{}, err
	}

	previous := pkg.Status()
	deliveryProof, err := pkg.Transition(shipment.TransitionRequest{
		Target:   target,
		Proof:    proof,
		Actor:    actor,
		DriverID: driverID,
		At:       now,
	})
	if err != nil {
		return PackageTransitionResult{}, err
	}

	if err = packages.Update(ctx, pkg, previous); err != nil {
		return PackageTransitionResult{}, err
	}
	if err = uow.ProofRepository().Add(ctx, deliveryProof); err != nil {
		return PackageTransitionResult{}, err
	}

	result := PackageTransitionResult{
		PackageID: pkg.ID(),
		RouteID:   r.ID(),
		Status:    pkg.Status(),
		Proof:     deliveryProof.Snapshot(),
	}

	pending, err := packages.CountByStatus(ctx, r.ID(), shipment.Pending)
	if err != nil {
		return PackageTransitionResult{}, err
	}
	if pending > 0 {
		return result, nil
	}

	routeStatus := r.Status()
	changed, err := r.Complete(pending, now)
	if err != nil {
		return PackageTransitionResult{}, err
	}
	if changed {
		if err = routes.Update(ctx, r, routeStatus); err != nil {
			return PackageTransitionResult{}, err
		}
		result.RouteCompleted = true
	}
	return result, nil
}

// authorizePackageActor lets managers act on any route and drivers only on their own.
// It returns the driver recorded on the proof.
func authorizePackageActor(ctx context.Context, uow UoW, r *route.Route, actor kernel.Actor) (*kernel.UUID, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if actor.IsManager() {
		return r.DriverID(), nil
	}

	d, err := uow.DriverRepository().GetByExternalID(ctx, actor.ID())
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil, errs.NewActorNotPermittedError("transition package", actor.ID())
		}
		return nil, err
	}
	if r.DriverID() == nil || !r.DriverID().IsEqual(d.ID()) {
		return nil, errs.NewActorNotPermittedError("transition package", actor.ID())
	}
	id := d.ID()
	return &id, nil
}
