package finance

import (
	"errors"
	"fmt"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// Mileage is a distance record of a route. KmStart/KmEnd are the odometer readings
// when the distance was derived from them.
type Mileage struct {
	ID         kernel.UUID
	RouteID    kernel.UUID
	KmStart    decimal.NullDecimal
	KmEnd      decimal.NullDecimal
	Distance   decimal.Decimal
	RecordedOn kernel.Date
	Notes      string
	CreatedBy  string
	CreatedAt  time.Time
}

// OdometerDistance validates an odometer pair and returns end - start.
func OdometerDistance(start, end decimal.Decimal) (decimal.Decimal, error) {
	if start.IsNegative() {
		return decimal.Zero, errs.NewValueIsInvalidErrorWithCause("km start", fmt.Errorf("%s is negative", start))
	}
	if end.LessThan(start) {
		return decimal.Zero, errs.NewValueIsInvalidErrorWithCause("km end",
			fmt.Errorf("odometer end %s is below start %s", end, start))
	}
	return end.Sub(start), nil
}

// NewMileageFromOdometer records the distance between two odometer readings.
func NewMileageFromOdometer(id, routeID kernel.UUID, start, end decimal.Decimal, on kernel.Date, notes,
	createdBy string, at time.Time) (Mileage, error) {
	distance, err := OdometerDistance(start, end)
	if err != nil {
		return Mileage{}, err
	}
	m := Mileage{
		ID: id, RouteID: routeID,
		KmStart: decimal.NewNullDecimal(start), KmEnd: decimal.NewNullDecimal(end),
		Distance: distance, RecordedOn: on, Notes: notes, CreatedBy: createdBy, CreatedAt: at,
	}
	return m, m.validate()
}

// NewMileage records a distance measured another way (GPS, manual).
func NewMileage(id, routeID kernel.UUID, distance decimal.Decimal, on kernel.Date, notes, createdBy string,
	at time.Time) (Mileage, error) {
	if distance.IsNegative() {
		return Mileage{}, errs.NewValueIsInvalidErrorWithCause("distance", fmt.Errorf("%s is negative", distance))
	}
	m := Mileage{
		ID: id, RouteID: routeID, Distance: distance, RecordedOn: on, Notes: notes, CreatedBy: createdBy, CreatedAt: at,
	}
	return m, m.validate()
}

func (m Mileage) validate() error {
	var errList []error
	errList = append(errList, m.ID.Validate(), m.RecordedOn.Validate())
	if err := m.RouteID.Validate(); err != nil {
		errList = append(errList, errs.NewValueIsRequiredErrorWithCause("route id", err))
	}
	if m.CreatedBy == "" {
		errList = append(errList, errs.NewValueIsRequiredError("created by"))
	}
	return errors.Join(errList...)
}
