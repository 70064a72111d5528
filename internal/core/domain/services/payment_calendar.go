package services

import (
	"time"

	"lastmile/internal/core/domain/model/kernel"
)

// PaymentCalendar knows the weekly payday in the operator timezone.
type PaymentCalendar struct {
	payday   time.Weekday
	location *time.Location
}

func NewPaymentCalendar(payday time.Weekday, location *time.Location) PaymentCalendar {
	if location == nil {
		location = time.UTC
	}
	return PaymentCalendar{payday: payday, location: location}
}

func (c PaymentCalendar) Location() *time.Location {
	return c.location
}

func (c PaymentCalendar) Payday() time.Weekday {
	return c.payday
}

// Today is the calendar day of at in the operator timezone.
func (c PaymentCalendar) Today(at time.Time) kernel.Date {
	return kernel.DateIn(at, c.location)
}

// NextDueDate returns the first payday strictly after the local day of at.
// A route finalized on a payday is paid on the following week's payday.
func (c PaymentCalendar) NextDueDate(at time.Time) kernel.Date {
	day := c.Today(at)
	for i := 1; i <= 7; i++ {
		candidate := day.AddDays(i)
		if candidate.Weekday() == c.payday {
			return candidate
		}
	}
	return day.AddDays(7)
}
