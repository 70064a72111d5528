package shipment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
)

var (
	// ErrPackageIsNotConstructed is returned when a Package was not created through
	// NewPackage or RestorePackage.
	ErrPackageIsNotConstructed = errors.New("Package must be created via NewPackage constructor")
)

// Destination is where a package has to go.
type Destination struct {
	Address      string
	Neighborhood string
	Phone        string
	Point        *kernel.GeoPoint
}

// Package is one parcel on a Route. It is its own aggregate: the route references
// packages only by ID, so a package transition locks one package row and the route
// completion check reads the remaining statuses from the store.
//
// Package follows these invariants:
//   - Belongs to exactly one route (routeID never changes)
//   - Tracking code is 3..50 characters and unique within its route
//   - Moves from Pending to a terminal state at most once
type Package struct {
	id           kernel.UUID
	routeID      kernel.UUID
	position     int
	trackingCode string
	destination  Destination
	status       Status
	updatedAt    time.Time

	isConstructed bool
}

// PackageSnapshot carries every field of a Package across the persistence boundary.
type PackageSnapshot struct {
	ID           kernel.UUID
	RouteID      kernel.UUID
	Position     int
	TrackingCode string
	Destination  Destination
	Status       Status
	UpdatedAt    time.Time
}

// TransitionRequest is the input of Package.Transition.
type TransitionRequest struct {
	Target   Status
	Proof    ProofInput
	Actor    kernel.Actor
	DriverID *kernel.UUID
	At       time.Time
}

// NewPackage creates a Pending package on routeID.
//
// Parameters:
//   - id: package identifier
//   - routeID: owning route
//   - position: 1-based place in the route's delivery order
//   - trackingCode: carrier tracking code, normalized by NormalizeTrackingCode
//   - destination: address and optional coordinates
//   - at: creation time
//
// Returns:
//   - *Package: the created package
//   - error: joined validation errors
func NewPackage(id, routeID kernel.UUID, position int, trackingCode string, destination Destination,
	at time.Time) (*Package, error) {
	p := &Package{
		status:        Pending,
		updatedAt:     at,
		isConstructed: true,
	}

	if err := errors.Join(
		p.setID(id),
		p.setRouteID(routeID),
		p.setPosition(position),
		p.setTrackingCode(trackingCode),
		p.setDestination(destination),
	); err != nil {
		return nil, err
	}
	return p, nil
}

// RestorePackage rebuilds a package loaded from storage.
func RestorePackage(s PackageSnapshot) (*Package, error) {
	p := &Package{
		updatedAt:     s.UpdatedAt,
		isConstructed: true,
	}
	if err := errors.Join(
		p.setID(s.ID),
		p.setRouteID(s.RouteID),
		p.setPosition(s.Position),
		p.setTrackingCode(s.TrackingCode),
		p.setDestination(s.Destination),
		s.Status.Validate(),
	); err != nil {
		return nil, err
	}
	p.status = s.Status
	return p, nil
}

func (p *Package) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrPackageIsNotConstructed
	}
	return nil
}

func (p *Package) ID() kernel.UUID          { return p.id }
func (p *Package) RouteID() kernel.UUID     { return p.routeID }
func (p *Package) Position() int            { return p.position }
func (p *Package) TrackingCode() string     { return p.trackingCode }
func (p *Package) Destination() Destination { return p.destination }
func (p *Package) Status() Status           { return p.status }
func (p *Package) UpdatedAt() time.Time     { return p.updatedAt }
func (p *Package) IsTerminal() bool         { return p.status.IsTerminal() }

// Transition moves a Pending package to Delivered or Failed and returns the proof
// that must be persisted together with the new status.
//
// Returns:
//   - *DeliveryProof: the single proof of this transition
//   - error: *errs.InvalidTransitionError when the package is already terminal,
//     validation errors for a non-terminal target or missing evidence
//
// The package is left untouched when an error is returned.
func (p *Package) Transition(req TransitionRequest) (*DeliveryProof, error) {
	next, err := p.status.TransitionTo(req.Target)
	if err != nil {
		var transitionErr *errs.InvalidTransitionError
		if errors.As(err, &transitionErr) {
			return nil, errs.NewInvalidTransitionError("package", p.id.String(), transitionErr.From, transitionErr.To)
		}
		return nil, err
	}

	proof, err := newDeliveryProof(p.id, next, req.Proof, req.Actor, req.DriverID, req.At)
	if err != nil {
		return nil, err
	}

	p.status = next
	p.updatedAt = req.At
	return proof, nil
}

func (p *Package) Snapshot() PackageSnapshot {
	return PackageSnapshot{
		ID:           p.id,
		RouteID:      p.routeID,
		Position:     p.position,
		TrackingCode: p.trackingCode,
		Destination:  p.destination,
		Status:       p.status,
		UpdatedAt:    p.updatedAt,
	}
}

func (p *Package) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	p.id = id
	return nil
}

func (p *Package) setRouteID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("route id", err)
	}
	p.routeID = id
	return nil
}

func (p *Package) setPosition(position int) error {
	if position <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("position is invalid", fmt.Errorf("%d is not greater than 0", position))
	}
	p.position = position
	return nil
}

func (p *Package) setTrackingCode(code string) error {
	normalized, err := NormalizeTrackingCode(code)
	if err != nil {
		return err
	}
	p.trackingCode = normalized
	return nil
}

func (p *Package) setDestination(d Destination) error {
	if d.Point != nil {
		if err := d.Point.Validate(); err != nil {
			return err
		}
	}
	d.Address = strings.TrimSpace(d.Address)
	d.Neighborhood = strings.TrimSpace(d.Neighborhood)
	d.Phone = strings.TrimSpace(d.Phone)
	p.destination = d
	return nil
}
