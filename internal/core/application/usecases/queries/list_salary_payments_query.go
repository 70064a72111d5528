package queries

import (
	"errors"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/salary"
	"lastmile/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrListSalaryPaymentsQueryIsNotConstructed = errors.New(
		"ListSalaryPaymentsQuery must be created via NewListSalaryPaymentsQuery constructor",
	)
)

// ListSalaryPaymentsQuery lists salary payments, optionally narrowed to one driver
// and to a set of statuses. No status means every status.
type ListSalaryPaymentsQuery struct {
	driverID *kernel.UUID
	statuses []salary.Status

	guard guard.ConstructorGuard
}

func NewListSalaryPaymentsQuery(driverID *kernel.UUID, statuses ...salary.Status) (ListSalaryPaymentsQuery, error) {
	var errList []error
	if driverID != nil {
		errList = append(errList, driverID.Validate())
	}
	for _, s := range statuses {
		errList = append(errList, s.Validate())
	}
	if err := errors.Join(errList...); err != nil {
		return ListSalaryPaymentsQuery{}, err
	}
	return ListSalaryPaymentsQuery{
		driverID: driverID,
		statuses: append([]salary.Status(nil), statuses...),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q ListSalaryPaymentsQuery) Validate() error {
	return q.guard.Validate(ErrListSalaryPaymentsQueryIsNotConstructed)
}

func (q ListSalaryPaymentsQuery) DriverID() *kernel.UUID    { return q.driverID }
func (q ListSalaryPaymentsQuery) Statuses() []salary.Status { return q.statuses }

// SalaryPaymentView is one salary payment with its driver and route names.
type SalaryPaymentView struct {
	ID         kernel.UUID
	DriverID   kernel.UUID
	DriverName string
	RouteID    *kernel.UUID
	RouteName  string
	Amount     decimal.Decimal
	DueDate    kernel.Date
	Status     string
	PaidAt     *time.Time
	PaidBy     string
}
