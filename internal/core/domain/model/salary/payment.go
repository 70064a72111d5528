package salary

import (
	"errors"
	"fmt"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// ErrPaymentIsNotConstructed is returned when a Payment was not created through NewPayment or Restore.
var ErrPaymentIsNotConstructed = errors.New("Payment must be created via NewPayment constructor")

// Payment is a salary obligation towards one driver.
type Payment struct {
	id        kernel.UUID
	driverID  kernel.UUID
	routeID   *kernel.UUID
	amount    decimal.Decimal
	dueDate   kernel.Date
	status    Status
	paidAt    *time.Time
	paidBy    string
	createdAt time.Time
	updatedAt time.Time

	isConstructed bool
}

// Snapshot carries every field of a Payment across the persistence boundary.
type Snapshot struct {
	ID        kernel.UUID
	DriverID  kernel.UUID
	RouteID   *kernel.UUID
	Amount    decimal.Decimal
	DueDate   kernel.Date
	Status    Status
	PaidAt    *time.Time
	PaidBy    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPayment creates a Pending payment.
//
// Parameters:
//   - id: payment identifier
//   - driverID: payee
//   - routeID: finalized route this pay is for, nil for ad-hoc pay
//   - amount: strictly positive amount
//   - dueDate: calendar day the payment is due
//   - at: creation time
func NewPayment(id, driverID kernel.UUID, routeID *kernel.UUID, amount decimal.Decimal, dueDate kernel.Date,
	at time.Time) (*Payment, error) {
	p := &Payment{
		routeID:       routeID,
		status:        Pending,
		createdAt:     at,
		updatedAt:     at,
		isConstructed: true,
	}
	if err := errors.Join(
		id.Validate(),
		p.setDriverID(driverID),
		p.setAmount(amount),
		dueDate.Validate(),
	); err != nil {
		return nil, err
	}
	p.id = id
	p.dueDate = dueDate
	return p, nil
}

func Restore(s Snapshot) (*Payment, error) {
	p := &Payment{
		id:            s.ID,
		routeID:       s.RouteID,
		dueDate:       s.DueDate,
		paidAt:        s.PaidAt,
		paidBy:        s.PaidBy,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
		isConstructed: true,
	}
	if err := errors.Join(
		s.ID.Validate(),
		p.setDriverID(s.DriverID),
		p.setAmount(s.Amount),
		s.DueDate.Validate(),
		s.Status.Validate(),
	); err != nil {
		return nil, err
	}
	if (s.Status == Paid) != (s.PaidAt != nil) {
		return nil, errs.NewValueIsInvalidErrorWithCause("paid_at", errors.New("paid_at must be set exactly when status is paid"))
	}
	p.status = s.Status
	return p, nil
}

func (p *Payment) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrPaymentIsNotConstructed
	}
	return nil
}

func (p *Payment) ID() kernel.UUID         { return p.id }
func (p *Payment) DriverID() kernel.UUID   { return p.driverID }
func (p *Payment) RouteID() *kernel.UUID   { return p.routeID }
func (p *Payment) Amount() decimal.Decimal { return p.amount }
func (p *Payment) DueDate() kernel.Date    { return p.dueDate }
func (p *Payment) Status() Status          { return p.status }
func (p *Payment) PaidAt() *time.Time      { return p.paidAt }
func (p *Payment) PaidBy() string          { return p.paidBy }
func (p *Payment) CreatedAt() time.Time    { return p.createdAt }
func (p *Payment) UpdatedAt() time.Time    { return p.updatedAt }

// IsDueOn reports whether an unpaid payment falls due exactly on today.
func (p *Payment) IsDueOn(today kernel.Date) bool {
	return p.status == Pending && p.dueDate.Equal(today)
}

// IsOverdueOn reports whether the payment is unpaid and its due date has passed.
func (p *Payment) IsOverdueOn(today kernel.Date) bool {
	return p.status.IsUnpaid() && p.dueDate.Before(today)
}

// DaysOverdue is 0 unless the due date is before today.
func (p *Payment) DaysOverdue(today kernel.Date) int {
	if !p.dueDate.Before(today) {
		return 0
	}
	return today.DaysSince(p.dueDate)
}

// MarkOverdue moves a Pending payment whose due date has passed to Overdue.
//
// Returns:
//   - changed: false when already Overdue or Paid
//   - error: InvalidTransitionError when the due date has not passed yet
func (p *Payment) MarkOverdue(today kernel.Date, at time.Time) (bool, error) {
	if p.status != Pending {
		return false, nil
	}
	if !p.dueDate.Before(today) {
		return false, errs.NewInvalidTransitionErrorWithCause("salary_payment", p.id.String(), p.status.String(),
			Overdue.String(), fmt.Errorf("due date %s has not passed on %s", p.dueDate, today))
	}
	p.status = Overdue
	p.updatedAt = at
	return true, nil
}

// MarkPaid confirms the payment. Confirming a Paid payment is a no-op (changed == false).
func (p *Payment) MarkPaid(by kernel.Actor, at time.Time) (bool, error) {
	if err := by.Validate(); err != nil {
		return false, err
	}
	if p.status == Paid {
		return false, nil
	}
	paidAt := at
	p.status = Paid
	p.paidAt = &paidAt
	p.paidBy = by.ID()
	p.updatedAt = at
	return true, nil
}

func (p *Payment) Snapshot() Snapshot {
	return Snapshot{
		ID:        p.id,
		DriverID:  p.driverID,
		RouteID:   p.routeID,
		Amount:    p.amount,
		DueDate:   p.dueDate,
		Status:    p.status,
		PaidAt:    p.paidAt,
		PaidBy:    p.paidBy,
		CreatedAt: p.createdAt,
		UpdatedAt: p.updatedAt,
	}
}

func (p *Payment) setDriverID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("driver id", err)
	}
	p.driverID = id
	return nil
}

func (p *Payment) setAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errs.NewValueIsInvalidErrorWithCause("amount", fmt.Errorf("%s is not greater than 0", amount))
	}
	p.amount = amount
	return nil
}
