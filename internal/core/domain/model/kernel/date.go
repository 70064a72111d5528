package kernel

import (
	"fmt"
	"time"

	"lastmile/internal/pkg/errs"
)

const dateLayout = time.DateOnly

// Date is a calendar day without time or zone, e.g. a salary due date.
// "Today" is always derived in the operator timezone by DateIn.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateIn returns the calendar day t falls on in loc.
func DateIn(t time.Time, loc *time.Location) Date {
	local := t.In(loc)
	return NewDate(local.Year(), local.Month(), local.Day())
}

// DateFromTime keeps the year, month and day of t as stored (used for DATE columns).
func DateFromTime(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, errs.NewValueIsInvalidErrorWithCause("date", err)
	}
	return DateFromTime(t), nil
}

func (d Date) IsZero() bool {
	return d.t.IsZero()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errs.NewValueIsRequiredError("date")
	}
	return nil
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return d.t
}

func (d Date) Weekday() time.Weekday {
	return d.t.Weekday()
}

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// DaysSince returns the number of whole days from other to d.
func (d Date) DaysSince(other Date) int {
	return int(d.t.Sub(other.t).Hours() / 24)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

func (d Date) GoString() string {
	return fmt.Sprintf("kernel.Date(%s)", d)
}
