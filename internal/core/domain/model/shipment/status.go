package shipment

import (
	"fmt"

	"lastmile/internal/pkg/errs"
)

// Status is the lifecycle state of a Package.
type Status int

const (
	// Unknown catches uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial state: the package is still on the vehicle.
	Pending

	// Delivered means the receiver accepted the package. Terminal.
	Delivered

	// Failed means the delivery attempt failed and was documented. Terminal.
	Failed
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Pending:   "pending",
		Delivered: "delivered",
		Failed:    "failed",
	}
}

// ParseStatus converts the persisted or wire representation back into a Status.
func ParseStatus(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if str == s && status != Unknown {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a package status", s))
}

// Validate rejects Unknown and out-of-range values.
func (s Status) Validate() error {
	if s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	if _, ok := getStatusStrings()[s]; !ok {
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

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Failed
}

// IsTargetable reports whether s may be requested as a transition target.
func (s Status) IsTargetable() bool {
	return s.IsTerminal()
}

// TransitionTo returns target when s is Pending and target is terminal.
//
// Returns:
//   - (target, nil) on a legal transition
//   - (Unknown, *errs.ValueIsInvalidError) when target is not a terminal state
//   - (Unknown, *errs.InvalidTransitionError) when s is already terminal (ID left empty
//     for the caller to fill in)
func (s Status) TransitionTo(target Status) (Status, error) {
	if !target.IsTargetable() {
		return Unknown, errs.NewValueIsInvalidErrorWithCause("target status",
			fmt.Errorf("%s is not a terminal package status", target))
	}
	if s != Pending {
		return Unknown, errs.NewInvalidTransitionError("package", "", s.String(), target.String())
	}
	return target, nil
}
