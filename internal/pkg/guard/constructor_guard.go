// Package guard holds the constructor guard embedded by every domain value object
// and entity, so that a zero value can be told apart from a constructed one.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when no specific error is given.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard records whether the enclosing struct was built by its constructor.
//
// Example:
//
//	type Amount struct {
//	    value decimal.Decimal
//	    guard guard.ConstructorGuard
//	}
//
//	func NewAmount(v decimal.Decimal) (Amount, error) {
//	    if v.IsNegative() {
//	        return Amount{}, errs.NewValueIsInvalidError("amount")
//	    }
//	    return Amount{value: v, guard: guard.NewConstructorGuard()}, nil
//	}
//
//	func (a Amount) Validate() error {
//	    return a.guard.Validate(ErrAmountIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard marked as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is nil)
// if the guard is a zero value, nil otherwise.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
