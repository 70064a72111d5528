package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
)

func TestNewActor(t *testing.T) {
	t.Run("trims_and_keeps_role", func(t *testing.T) {
		a, err := kernel.NewActor("  42 ", kernel.RoleManager)

		require.NoError(t, err)
		assert.Equal(t, "42", a.ID())
		assert.True(t, a.IsManager())
	})

	t.Run("blank_id_is_required_error", func(t *testing.T) {
		_, err := kernel.NewActor(" ", kernel.RoleDriver)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("unknown_role_is_invalid", func(t *testing.T) {
		_, err := kernel.NewActor("42", kernel.Role("admin"))

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestActor_RequireManager(t *testing.T) {
	manager, _ := kernel.NewActor("1", kernel.RoleManager)
	driver, _ := kernel.NewActor("2", kernel.RoleDriver)

	require.NoError(t, manager.RequireManager("finalize route"))

	err := driver.RequireManager("finalize route")
	require.ErrorIs(t, err, errs.ErrActorNotPermitted)
	assert.Contains(t, err.Error(), "finalize route")

	require.ErrorIs(t, kernel.Actor{}.RequireManager("finalize route"), errs.ErrValueIsRequired)
}

func TestParseRole(t *testing.T) {
	r, err := kernel.ParseRole(" Manager ")

	require.NoError(t, err)
	assert.Equal(t, kernel.RoleManager, r)
}
