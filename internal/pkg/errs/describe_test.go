package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"lastmile/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   errs.Code
		entity string
		id     string
		rule   string
	}{
		{
			name:   "wrapped_not_found",
			err:    fmt.Errorf("load route: %w", errs.NewObjectNotFoundError("route", "r-1")),
			code:   errs.CodeNotFound,
			entity: "route",
			id:     "r-1",
			rule:   "exists",
		},
		{
			name:   "invalid_transition",
			err:    errs.NewInvalidTransitionError("package", "p-1", "delivered", "failed"),
			code:   errs.CodeInvalidTransition,
			entity: "package",
			id:     "p-1",
			rule:   "delivered -> failed",
		},
		{
			name:   "already_finalized",
			err:    errs.NewAlreadyFinalizedError("r-2"),
			code:   errs.CodeAlreadyFinalized,
			entity: "route",
			id:     "r-2",
			rule:   "finalized routes are frozen",
		},
		{
			name:   "token_consumed",
			err:    errs.NewTokenAlreadyConsumedError("abc"),
			code:   errs.CodeTokenAlreadyConsumed,
			entity: "action_token",
			rule:   "single use",
		},
		{
			name:   "token_expired",
			err:    errs.NewTokenExpiredError("abc"),
			code:   errs.CodeTokenExpired,
			entity: "action_token",
			rule:   "expires_at",
		},
		{
			name:   "not_permitted",
			err:    errs.NewActorNotPermittedError("finalize route", "tg-7"),
			code:   errs.CodeNotPermitted,
			entity: "actor",
			id:     "tg-7",
			rule:   "finalize route",
		},
		{
			name:   "joined_validation_reports_first",
			err:    errors.Join(errs.NewValueIsRequiredError("receiver name"), errs.NewValueIsInvalidError("amount")),
			code:   errs.CodeValidation,
			entity: "receiver name",
			rule:   "required",
		},
		{
			name: "wrapping_validation_names_its_own_param",
			err: fmt.Errorf("route r-9: %w",
				errs.NewValueIsInvalidErrorWithCause("settlement", errs.NewValueIsRequiredError("driver_salary"))),
			code:   errs.CodeValidation,
			entity: "settlement",
			rule:   "invalid",
		},
		{
			name:   "out_of_range",
			err:    errs.NewValueIsOutOfRangeError("lat", 91.0, -90, 90),
			code:   errs.CodeValidation,
			entity: "lat",
			rule:   "between -90 and 90",
		},
		{
			name: "transient",
			err:  errs.NewConcurrentUpdateError("route", "r-3"),
			code: errs.CodeTransientStore,
			rule: "retry",
		},
		{
			name: "unknown",
			err:  errors.New("pq: password authentication failed"),
			code: errs.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := errs.Describe(tt.err)

			assert.Equal(t, tt.code, d.Code)
			assert.Equal(t, tt.entity, d.Entity)
			assert.Equal(t, tt.id, d.ID)
			assert.Equal(t, tt.rule, d.Rule)
		})
	}
}

func TestDescribe_HidesInternalDetails(t *testing.T) {
	d := errs.Describe(errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, "internal error", d.Message)
}
