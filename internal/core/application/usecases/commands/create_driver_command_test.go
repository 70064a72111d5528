package commands_test

import (
	"testing"

	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreateDriverCommand_ValidInput(t *testing.T) {
	id := kernel.NewUUID()
	rate, err := driver.NewPayRate(driver.RatePerPackage, decimal.RequireFromString("3.50"))
	require.NoError(t, err)
	manager, _ := kernel.NewActor("tg-1", kernel.RoleManager)

	cmd, err := commands.NewCreateDriverCommand(id, " tg-5512 ", " Ana ", kernel.RoleDriver, rate, manager)
	require.NoError(t, err)
	assert.Equal(t, id, cmd.DriverID())
	assert.Equal(t, "tg-5512", cmd.ExternalID())
	assert.Equal(t, "Ana", cmd.DisplayName())
	assert.Equal(t, kernel.RoleDriver, cmd.Role())
	assert.Equal(t, driver.RatePerPackage, cmd.PayRate().Kind())
	require.NoError(t, cmd.Validate())
}

func TestNewCreateDriverCommand_InvalidDriverID(t *testing.T) {
	manager, _ := kernel.NewActor("tg-1", kernel.RoleManager)
	_, err := commands.NewCreateDriverCommand(kernel.UUID{}, "tg-5512", "Ana", kernel.RoleDriver, driver.PayRate{}, manager)
	require.Error(t, err)
	assert.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
}

func TestNewCreateDriverCommand_MissingFields(t *testing.T) {
	manager, _ := kernel.NewActor("tg-1", kernel.RoleManager)
	_, err := commands.NewCreateDriverCommand(kernel.NewUUID(), "  ", "", "courier", driver.PayRate{}, manager)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestCreateDriverCommand_NotConstructed(t *testing.T) {
	cmd := commands.CreateDriverCommand{}
	assert.ErrorIs(t, cmd.Validate(), commands.ErrCreateDriverCommandIsNotConstructed)
}
