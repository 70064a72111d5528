package route

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
)

var (
	// ErrRouteIsNotConstructed is returned when a Route was not created through NewRoute or Restore.
	ErrRouteIsNotConstructed = errors.New("Route must be created via NewRoute constructor")
)

// Route is the aggregate root for a delivery run.
//
// Route follows these invariants:
//   - finalizedAt set implies completedAt set
//   - completedAt set implies every package of the route is terminal (checked by Complete)
//   - completedAt and finalizedAt are written once
//   - after finalization the financial fields never change
//
// driverID is a weak reference: deleting the driver leaves the route unassigned.
type Route struct {
	id          kernel.UUID
	name        string
	driverID    *kernel.UUID
	status      Status
	financials  Financials
	createdAt   time.Time
	completedAt *time.Time
	finalizedAt *time.Time
	finalizedBy string

	isConstructed bool
}

// Snapshot carries every field of a Route across the persistence boundary.
type Snapshot struct {
	ID          kernel.UUID
	Name        string
	DriverID    *kernel.UUID
	Status      Status
	Financials  Financials
	CreatedAt   time.Time
	CompletedAt *time.Time
	FinalizedAt *time.Time
	FinalizedBy string
}

// NewRoute creates an Active route with all financial fields unset.
//
// Parameters:
//   - id: route identifier
//   - name: display name (e.g. "Zona Sul 2026-03-05")
//   - driverID: assignee, nil for an unassigned route
//   - at: creation time
func NewRoute(id kernel.UUID, name string, driverID *kernel.UUID, at time.Time) (*Route, error) {
	r := &Route{
		status:        Active,
		createdAt:     at,
		isConstructed: true,
	}
	if err := errors.Join(r.setID(id), r.setName(name), r.setDriverID(driverID)); err != nil {
		return nil, err
	}
	return r, nil
}

// Restore rebuilds a route loaded from storage and re-checks the timestamp invariants.
func Restore(s Snapshot) (*Route, error) {
	r := &Route{
		financials:    s.Financials,
		createdAt:     s.CreatedAt,
		completedAt:   s.CompletedAt,
		finalizedAt:   s.FinalizedAt,
		finalizedBy:   s.FinalizedBy,
		isConstructed: true,
	}
	if err := errors.Join(r.setID(s.ID), r.setName(s.Name), r.setDriverID(s.DriverID), s.Status.Validate()); err != nil {
		return nil, err
	}
	r.status = s.Status
	if err := r.checkInvariants(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Route) Validate() error {
	if r == nil || !r.isConstructed {
		return ErrRouteIsNotConstructed
	}
	return nil
}

func (r *Route) ID() kernel.UUID         { return r.id }
func (r *Route) Name() string            { return r.name }
func (r *Route) DriverID() *kernel.UUID  { return r.driverID }
func (r *Route) Status() Status          { return r.status }
func (r *Route) Financials() Financials  { return r.financials }
func (r *Route) CreatedAt() time.Time    { return r.createdAt }
func (r *Route) CompletedAt() *time.Time { return r.completedAt }
func (r *Route) FinalizedAt() *time.Time { return r.finalizedAt }
func (r *Route) FinalizedBy() string     { return r.finalizedBy }
func (r *Route) IsFinalized() bool       { return r.status == Finalized }
func (r *Route) IsAssigned() bool        { return r.driverID != nil }

// AcceptsPackages returns an error unless new packages may still be added.
func (r *Route) AcceptsPackages() error {
	if r.status != Active {
		return errs.NewInvalidTransitionErrorWithCause("route", r.id.String(), r.status.String(), r.status.String(),
			errors.New("packages can only be added to an active route"))
	}
	return nil
}

// AcceptsLedgerEntries returns AlreadyFinalizedError once the financial outcome is frozen.
func (r *Route) AcceptsLedgerEntries() error {
	if r.status == Finalized {
		return errs.NewAlreadyFinalizedError(r.id.String())
	}
	return nil
}

// Complete moves an Active route to Completed.
//
// Parameters:
//   - pendingPackages: number of packages of the route still Pending, read from the store
//     inside the same unit of work
//   - at: completion time
//
// Returns:
//   - changed: true only for the call that performed the transition
//   - error: InvalidTransitionError when packages are still pending
//
// Calling Complete on a Completed or Finalized route is a no-op and keeps completedAt.
func (r *Route) Complete(pendingPackages int, at time.Time) (bool, error) {
	if r.status != Active {
		return false, nil
	}
	if pendingPackages > 0 {
		return false, errs.NewInvalidTransitionErrorWithCause("route", r.id.String(), Active.String(),
			Completed.String(), fmt.Errorf("%d packages are still pending", pendingPackages))
	}

	completedAt := at
	r.status = Completed
	r.completedAt = &completedAt
	return true, nil
}

// Finalize freezes the financial outcome.
//
// Returns:
//   - *errs.AlreadyFinalizedError when called a second time
//   - *errs.InvalidTransitionError when the route is still Active
func (r *Route) Finalize(frozen FrozenFinancials, by kernel.Actor, at time.Time) error {
	switch r.status {
	case Finalized:
		return errs.NewAlreadyFinalizedError(r.id.String())
	case Completed:
	default:
		return errs.NewInvalidTransitionError("route", r.id.String(), r.status.String(), Finalized.String())
	}
	if err := by.Validate(); err != nil {
		return err
	}

	finalizedAt := at
	r.status = Finalized
	r.financials = frozen.toNullable()
	r.finalizedAt = &finalizedAt
	r.finalizedBy = by.ID()
	return nil
}

func (r *Route) Snapshot() Snapshot {
	return Snapshot{
		ID:          r.id,
		Name:        r.name,
		DriverID:    r.driverID,
		Status:      r.status,
		Financials:  r.financials,
		CreatedAt:   r.createdAt,
		CompletedAt: r.completedAt,
		FinalizedAt: r.finalizedAt,
		FinalizedBy: r.finalizedBy,
	}
}

func (r *Route) checkInvariants() error {
	switch r.status {
	case Active:
		if r.completedAt != nil || r.finalizedAt != nil {
			return errs.NewValueIsInvalidErrorWithCause("route timestamps", errors.New("active route has lifecycle timestamps"))
		}
	case Completed:
		if r.completedAt == nil || r.finalizedAt != nil {
			return errs.NewValueIsInvalidErrorWithCause("route timestamps", errors.New("completed route must have only completed_at"))
		}
	case Finalized:
		if r.completedAt == nil || r.finalizedAt == nil {
			return errs.NewValueIsInvalidErrorWithCause("route timestamps", errors.New("finalized route must have completed_at and finalized_at"))
		}
	}
	return nil
}

func (r *Route) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	r.id = id
	return nil
}

func (r *Route) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("route name")
	}
	r.name = name
	return nil
}

func (r *Route) setDriverID(id *kernel.UUID) error {
	if id != nil {
		if err := id.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause("driver id", err)
		}
	}
	r.driverID = id
	return nil
}
