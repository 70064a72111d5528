package ports

import (
	"context"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/salary"
)

// SalaryPaymentRepository defines the persistence contract for salary payments.
type SalaryPaymentRepository interface {
	// Add persists a payment. A second payment for the same route and driver returns
	// *errs.AlreadyFinalizedError.
	Add(ctx context.Context, p *salary.Payment) error

	Get(ctx context.Context, id kernel.UUID) (*salary.Payment, error)

	// GetForUpdate reads the payment and locks its row until the unit of work ends.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*salary.Payment, error)

	// ExistsForRoute reports whether a payment for the route and driver pair exists.
	ExistsForRoute(ctx context.Context, routeID, driverID kernel.UUID) (bool, error)

	// CountByDriver counts payments of any status owed to driverID.
	CountByDriver(ctx context.Context, driverID kernel.UUID) (int, error)

	// ListDueOn returns Pending payments with due date day, ordered by driver and due date.
	ListDueOn(ctx context.Context, day kernel.Date) ([]*salary.Payment, error)

	// ListUnpaidDueBefore returns Pending and Overdue payments due before day,
	// ordered by driver and due date.
	ListUnpaidDueBefore(ctx context.Context, day kernel.Date) ([]*salary.Payment, error)

	// MarkOverdueDueBefore moves every Pending payment due before day to Overdue in a
	// single statement and returns how many rows changed.
	MarkOverdueDueBefore(ctx context.Context, day kernel.Date, at time.Time) (int, error)

	// Update writes p only if the stored status still equals expected.
	// A lost race returns *errs.ConcurrentUpdateError.
	Update(ctx context.Context, p *salary.Payment, expected salary.Status) error
}
