package commands

import (
	"errors"
	"strings"

	"lastmile/internal/core/domain/model/finance"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
	"lastmile/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrAddMileageCommandIsNotConstructed = errors.New(
	"AddMileageCommand must be created via NewAddMileageCommand constructor",
)

// MileageReading is either an odometer pair or a measured distance.
type MileageReading struct {
	KmStart  decimal.NullDecimal
	KmEnd    decimal.NullDecimal
	Distance decimal.NullDecimal
}

// AddMileageCommand records a distance travelled on a route.
type AddMileageCommand struct { //nolint:recvcheck //using for validation
	mileage finance.Mileage
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

func NewAddMileageCommand(mileageID, routeID kernel.UUID, reading MileageReading, recordedOn kernel.Date,
	notes string, actor kernel.Actor) (AddMileageCommand, error) {
	if err := actor.Validate(); err != nil {
		return AddMileageCommand{}, err
	}

	var (
		m   finance.Mileage
		err error
	)
	notes = strings.TrimSpace(notes)
	switch {
	case reading.Distance.Valid && (reading.KmStart.Valid || reading.KmEnd.Valid):
		return AddMileageCommand{}, errs.NewValueIsInvalidErrorWithCause("mileage",
			errors.New("give either an odometer pair or a distance"))
	case reading.Distance.Valid:
		m, err = finance.NewMileage(mileageID, routeID, reading.Distance.Decimal, recordedOn, notes, actor.ID(),
			recordedOn.Time())
	case reading.KmStart.Valid && reading.KmEnd.Valid:
		m, err = finance.NewMileageFromOdometer(mileageID, routeID, reading.KmStart.Decimal, reading.KmEnd.Decimal,
			recordedOn, notes, actor.ID(), recordedOn.Time())
	default:
		return AddMileageCommand{}, errs.NewValueIsRequiredError("km_start and km_end, or distance")
	}
	if err != nil {
		return AddMileageCommand{}, err
	}

	return AddMileageCommand{mileage: m, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (c AddMileageCommand) Validate() error {
	return c.guard.Validate(ErrAddMileageCommandIsNotConstructed)
}

func (c AddMileageCommand) Mileage() finance.Mileage { return c.mileage }
func (c AddMileageCommand) Actor() kernel.Actor      { return c.actor }
