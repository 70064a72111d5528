package commands

import (
	"errors"
	"fmt"
	"math"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
	"lastmile/internal/pkg/guard"
)

var ErrUpdateDriverLocationCommandIsNotConstructed = errors.New(
	"UpdateDriverLocationCommand must be created via NewUpdateDriverLocationCommand constructor",
)

// UpdateDriverLocationCommand reports a driver's current GPS fix.
type UpdateDriverLocationCommand struct { //nolint:recvcheck //using for validation
	driverID  kernel.UUID
	lat       float64
	lon       float64
	accuracyM *float64
	actor     kernel.Actor

	guard guard.ConstructorGuard
}

func NewUpdateDriverLocationCommand(driverID kernel.UUID, lat, lon float64, accuracyM *float64,
	actor kernel.Actor) (UpdateDriverLocationCommand, error) {
	errList := []error{driverID.Validate(), actor.Validate()}
	if _, err := kernel.NewGeoPoint(lat, lon); err != nil {
		errList = append(errList, err)
	}
	if accuracyM != nil && (math.IsNaN(*accuracyM) || *accuracyM < 0) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("accuracy",
			fmt.Errorf("%v is not a non-negative number of meters", *accuracyM)))
	}
	if err := errors.Join(errList...); err != nil {
		return UpdateDriverLocationCommand{}, err
	}
	return UpdateDriverLocationCommand{
		driverID:  driverID,
		lat:       lat,
		lon:       lon,
		accuracyM: accuracyM,
		actor:     actor,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateDriverLocationCommand) Validate() error {
	return c.guard.Validate(ErrUpdateDriverLocationCommandIsNotConstructed)
}

func (c UpdateDriverLocationCommand) DriverID() kernel.UUID { return c.driverID }
func (c UpdateDriverLocationCommand) Lat() float64          { return c.lat }
func (c UpdateDriverLocationCommand) Lon() float64          { return c.lon }
func (c UpdateDriverLocationCommand) AccuracyM() *float64   { return c.accuracyM }
func (c UpdateDriverLocationCommand) Actor() kernel.Actor   { return c.actor }
