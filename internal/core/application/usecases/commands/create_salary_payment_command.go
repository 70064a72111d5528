package commands

import (
	"errors"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
	"lastmile/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrCreateSalaryPaymentCommandIsNotConstructed = errors.New(
	"CreateSalaryPaymentCommand must be created via NewCreateSalaryPaymentCommand constructor",
)

// CreateSalaryPaymentCommand registers ad-hoc pay owed to a driver.
type CreateSalaryPaymentCommand struct { //nolint:recvcheck //using for validation
	paymentID kernel.UUID
	driverID  kernel.UUID
	routeID   *kernel.UUID
	amount    decimal.Decimal
	dueDate   kernel.Date
	actor     kernel.Actor

	guard guard.ConstructorGuard
}

func NewCreateSalaryPaymentCommand(paymentID, driverID kernel.UUID, routeID *kernel.UUID, amount decimal.Decimal,
	dueDate kernel.Date, actor kernel.Actor) (CreateSalaryPaymentCommand, error) {
	errList := []error{paymentID.Validate(), driverID.Validate(), dueDate.Validate(), actor.Validate()}
	if routeID != nil {
		errList = append(errList, routeID.Validate())
	}
	if !amount.IsPositive() {
		errList = append(errList, errs.NewValueIsInvalidError("amount must be greater than 0"))
	}
	if err := errors.Join(errList...); err != nil {
		return CreateSalaryPaymentCommand{}, err
	}

	return CreateSalaryPaymentCommand{
		paymentID: paymentID,
		driverID:  driverID,
		routeID:   routeID,
		amount:    amount,
		dueDate:   dueDate,
		actor:     actor,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c CreateSalaryPaymentCommand) Validate() error {
	return c.guard.Validate(ErrCreateSalaryPaymentCommandIsNotConstructed)
}

func (c CreateSalaryPaymentCommand) PaymentID() kernel.UUID  { return c.paymentID }
func (c CreateSalaryPaymentCommand) DriverID() kernel.UUID   { return c.driverID }
func (c CreateSalaryPaymentCommand) RouteID() *kernel.UUID   { return c.routeID }
func (c CreateSalaryPaymentCommand) Amount() decimal.Decimal { return c.amount }
func (c CreateSalaryPaymentCommand) DueDate() kernel.Date    { return c.dueDate }
func (c CreateSalaryPaymentCommand) Actor() kernel.Actor     { return c.actor }
