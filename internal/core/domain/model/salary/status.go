package salary

import (
	"fmt"

	"lastmile/internal/pkg/errs"
)

type Status int

const (
	Unknown Status = iota
	Pending
	Overdue
	Paid
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown: "unknown",
		Pending: "pending",
		Overdue: "overdue",
		Paid:    "paid",
	}
}

func ParseStatus(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if str == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a payment status", s))
}

func (s Status) Validate() error {
	if _, ok := getStatusStrings()[s]; !ok || s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsUnpaid is true for Pending and Overdue.
func (s Status) IsUnpaid() bool {
	return s == Pending || s == Overdue
}
