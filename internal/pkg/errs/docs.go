// Package errs provides standardized error types for the lastmile lifecycle engine.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes error types for two groups of failures:
//   - Validation: ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError
//   - Lifecycle: ObjectNotFoundError, InvalidTransitionError, AlreadyFinalizedError,
//     the token errors and ActorNotPermittedError
//
// Store failures that are worth a retry (a lost conditional update, a serialization
// failure, a dropped connection) unwrap to ErrTransientStore.
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g., ErrValueIsRequired)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method for error wrapping/unwrapping support
//
// Callers branch on the sentinel with errors.Is and reach the details with errors.As.
package errs

import (
	"fmt"
	"strings"
)

func sanitize(value any) string {
	return strings.ReplaceAll(fmt.Sprint(value), "\n", " ")
}
