package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"lastmile/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectNotFoundError(t *testing.T) {
	t.Run("NewObjectNotFoundError", func(t *testing.T) {
		err := errs.NewObjectNotFoundError("userId", "123")

		assert.Equal(t, "userId", err.ParamName)
		assert.Equal(t, "123", err.ID)
		require.NoError(t, err.Cause)
		assert.Equal(t, "object not found: 123", err.Error())
		assert.Equal(t, errs.ErrObjectNotFound, err.Unwrap())
	})

	t.Run("NewObjectNotFoundErrorWithCause", func(t *testing.T) {
		cause := errors.New("database connection failed")
		err := errs.NewObjectNotFoundErrorWithCause("userId", "123", cause)

		assert.Equal(t, "userId", err.ParamName)
		assert.Equal(t, "123", err.ID)
		assert.Equal(t, cause, err.Cause)
		assert.Equal(t,
			"object not found: param is: userId, ID is: 123 (cause: database connection failed)",
			err.Error())
		assert.Equal(t, errs.ErrObjectNotFound, err.Unwrap())
	})

	t.Run("Error with different ID types", func(t *testing.T) {
		err := errs.NewObjectNotFoundError("orderId", 456)
		assert.Equal(t, "object not found: %!s(int=456)", err.Error())
	})
}

func TestValueIsInvalidError(t *testing.T) {
	t.Run("NewValueIsInvalidError", func(t *testing.T) {
		err := errs.NewValueIsInvalidError("email")

		assert.Equal(t, "email", err.ParamName)
		require.NoError(t, err.Cause)
		assert.Equal(t, "value is invalid: email", err.Error())
		assert.Equal(t, []error{errs.ErrValueIsInvalid}, err.Unwrap())
	})

	t.Run("NewValueIsInvalidErrorWithCause", func(t *testing.T) {
		cause := errors.New("invalid format")
		err := errs.NewValueIsInvalidErrorWithCause("email", cause)

		assert.Equal(t, "email", err.ParamName)
		assert.Equal(t, cause, err.Cause)
		assert.Equal(t, "value is invalid: email (cause: invalid format)", err.Error())
		assert.Equal(t, []error{errs.ErrValueIsInvalid, cause}, err.Unwrap())
	})
}

func TestValueIsOutOfRangeError(t *testing.T) {
	t.Run("NewValueIsOutOfRangeError", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeError("age", 150, 0, 120)

		assert.Equal(t, "age", err.ParamName)
		assert.Equal(t, 150, err.Value)
		assert.Equal(t, 0, err.Min)
		assert.Equal(t, 120, err.Max)
		require.NoError(t, err.Cause)
		assert.Equal(t, "value is invalid: 150 is age, min value is 0, max value is 120", err.Error())
		assert.Equal(t, []error{errs.ErrValueIsOutOfRange}, err.Unwrap())
	})

	t.Run("NewValueIsOutOfRangeErrorWithCause", func(t *testing.T) {
		cause := errors.New("validation failed")
		err := errs.NewValueIsOutOfRangeErrorWithCause("score", -5, 0, 100, cause)

		assert.Equal(t, "score", err.ParamName)
		assert.Equal(t, -5, err.Value)
		assert.Equal(t, 0, err.Min)
		assert.Equal(t, 100, err.Max)
		assert.Equal(t, cause, err.Cause)
		assert.Equal(t,
			"value is invalid: -5 is score, min value is 0, max value is 100 (cause: validation failed)",
			err.Error())
		assert.Equal(t, []error{errs.ErrValueIsOutOfRange, cause}, err.Unwrap())
	})

	t.Run("sanitize function with newlines", func(t *testing.T) {
		err := errs.NewValueIsOutOfRangeError("text", "hello\nworld", 0, 10)
		assert.Contains(t, err.Error(), "hello world")
		assert.NotContains(t, err.Error(), "\n")
	})
}

func TestValueIsRequiredError(t *testing.T) {
	t.Run("NewValueIsRequiredError", func(t *testing.T) {
		err := errs.NewValueIsRequiredError("username")

		assert.Equal(t, "username", err.ParamName)
		require.NoError(t, err.Cause)
		assert.Equal(t, "value is required: username", err.Error())
		assert.Equal(t, []error{errs.ErrValueIsRequired}, err.Unwrap())
	})

	t.Run("NewValueIsRequiredErrorWithCause", func(t *testing.T) {
		cause := errors.New("missing required field")
		err := errs.NewValueIsRequiredErrorWithCause("username", cause)

		assert.Equal(t, "username", err.ParamName)
		assert.Equal(t, cause, err.Cause)
		assert.Equal(t, "value is required: username (cause: missing required field)", err.Error())
		assert.Equal(t, []error{errs.ErrValueIsRequired, cause}, err.Unwrap())
	})
}

func TestSentinelErrors(t *testing.T) {
	t.Run("sentinel errors are defined", func(t *testing.T) {
		require.Error(t, errs.ErrObjectNotFound)
		require.Error(t, errs.ErrValueIsInvalid)
		require.Error(t, errs.ErrValueIsOutOfRange)
		require.Error(t, errs.ErrValueIsRequired)
	})

	t.Run("error messages match expectations", func(t *testing.T) {
		assert.Equal(t, "object not found", errs.ErrObjectNotFound.Error())
		assert.Equal(t, "value is invalid", errs.ErrValueIsInvalid.Error())
		assert.Equal(t, "value is out of range", errs.ErrValueIsOutOfRange.Error())
		assert.Equal(t, "value is required", errs.ErrValueIsRequired.Error())
	})
}

func TestErrorsCanBeUnwrapped(t *testing.T) {
	t.Run("errors.Is works with custom errors", func(t *testing.T) {
		objectNotFoundErr := errs.NewObjectNotFoundError("userId", "123")
		require.ErrorIs(t, objectNotFoundErr, errs.ErrObjectNotFound)

		valueInvalidErr := errs.NewValueIsInvalidError("email")
		require.ErrorIs(t, valueInvalidErr, errs.ErrValueIsInvalid)

		valueOutOfRangeErr := errs.NewValueIsOutOfRangeError("age", 150, 0, 120)
		require.ErrorIs(t, valueOutOfRangeErr, errs.ErrValueIsOutOfRange)

		valueRequiredErr := errs.NewValueIsRequiredError("username")
		require.ErrorIs(t, valueRequiredErr, errs.ErrValueIsRequired)
	})

	t.Run("validation_cause_stays_reachable", func(t *testing.T) {
		missing := errs.NewValueIsRequiredError("driver id")
		err := fmt.Errorf("route r-7: %w", errs.NewValueIsInvalidErrorWithCause("settlement", missing))

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		var required *errs.ValueIsRequiredError
		require.ErrorAs(t, err, &required)
		assert.Equal(t, "driver id", required.ParamName)
	})

	t.Run("cause_of_each_validation_error", func(t *testing.T) {
		cause := errors.New("negative")

		assert.ErrorIs(t, errs.NewValueIsRequiredErrorWithCause("a", cause), cause)
		assert.ErrorIs(t, errs.NewValueIsInvalidErrorWithCause("b", cause), cause)
		assert.ErrorIs(t, errs.NewValueIsOutOfRangeErrorWithCause("c", -1, 0, 9, cause), cause)
		assert.True(t, errs.IsValidation(errs.NewValueIsInvalidErrorWithCause("d", cause)))
	})
}

func TestInvalidTransitionError(t *testing.T) {
	t.Run("NewInvalidTransitionError", func(t *testing.T) {
		err := errs.NewInvalidTransitionError("package", "p-1", "delivered", "failed")

		assert.Equal(t, "package", err.Entity)
		assert.Equal(t, "p-1", err.ID)
		assert.Equal(t, "invalid transition: package p-1 cannot move from delivered to failed", err.Error())
		require.ErrorIs(t, err, errs.ErrInvalidTransition)
	})

	t.Run("NewInvalidTransitionErrorWithCause", func(t *testing.T) {
		err := errs.NewInvalidTransitionErrorWithCause("route", "r-1", "active", "completed", errors.New("2 packages pending"))

		assert.Equal(t,
			"invalid transition: route r-1 cannot move from active to completed (cause: 2 packages pending)",
			err.Error())
	})
}

func TestTokenErrors(t *testing.T) {
	t.Run("each_constructor_unwraps_to_its_own_sentinel", func(t *testing.T) {
		require.ErrorIs(t, errs.NewTokenNotFoundError("abc"), errs.ErrTokenNotFound)
		require.ErrorIs(t, errs.NewTokenExpiredError("abc"), errs.ErrTokenExpired)
		require.ErrorIs(t, errs.NewTokenAlreadyConsumedError("abc"), errs.ErrTokenAlreadyConsumed)
		assert.NotErrorIs(t, errs.NewTokenExpiredError("abc"), errs.ErrTokenAlreadyConsumed)
	})

	t.Run("message_names_the_token", func(t *testing.T) {
		assert.Equal(t, "token already consumed: abc", errs.NewTokenAlreadyConsumedError("abc").Error())
	})
}

func TestTransientStoreErrors(t *testing.T) {
	t.Run("concurrent_update_is_transient", func(t *testing.T) {
		err := errs.NewConcurrentUpdateError("salary_payment", "s-1")

		require.ErrorIs(t, err, errs.ErrTransientStore)
		assert.Equal(t, "transient store error: salary_payment s-1 was modified concurrently", err.Error())
	})

	t.Run("store_unavailable_keeps_cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := errs.NewStoreUnavailableError("update route", cause)

		require.ErrorIs(t, err, errs.ErrTransientStore)
		require.ErrorIs(t, err, cause)
	})
}

func TestIsValidation(t *testing.T) {
	assert.True(t, errs.IsValidation(errs.NewValueIsRequiredError("name")))
	assert.True(t, errs.IsValidation(errs.NewValueIsInvalidError("amount")))
	assert.True(t, errs.IsValidation(errs.NewValueIsOutOfRangeError("lat", 100, -90, 90)))
	assert.False(t, errs.IsValidation(errs.NewAlreadyFinalizedError("r-1")))
}
