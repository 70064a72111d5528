package commands

import (
	"errors"
	"strings"

	"lastmile/internal/core/domain/model/driver"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
	"lastmile/internal/pkg/guard"
)

var ErrCreateDriverCommandIsNotConstructed = errors.New(
	"CreateDriverCommand must be created via NewCreateDriverCommand constructor",
)

// CreateDriverCommand registers a driver or manager reachable through the bot.
//
// Example:
//
//	rate, _ := driver.NewPayRate(driver.RatePerPackage, decimal.RequireFromString("3.50"))
//	cmd, err := NewCreateDriverCommand(kernel.NewUUID(), "tg-5512", "Ana", kernel.RoleDriver, rate, manager)
//	if err != nil {
//	    return fmt.Errorf("invalid driver: %w", err)
//	}
type CreateDriverCommand struct { //nolint:recvcheck //using for validation
	driverID    kernel.UUID
	externalID  string
	displayName string
	role        kernel.Role
	payRate     driver.PayRate
	actor       kernel.Actor

	guard guard.ConstructorGuard
}

func NewCreateDriverCommand(driverID kernel.UUID, externalID, displayName string, role kernel.Role,
	payRate driver.PayRate, actor kernel.Actor) (CreateDriverCommand, error) {
	cmd := CreateDriverCommand{
		driverID:    driverID,
		externalID:  strings.TrimSpace(externalID),
		displayName: strings.TrimSpace(displayName),
		payRate:     payRate,
		actor:       actor,
		guard:       guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		driverID.Validate(),
		cmd.setRole(role),
		requireText("external id", cmd.externalID),
		requireText("display name", cmd.displayName),
		actor.Validate(),
	); err != nil {
		return CreateDriverCommand{}, err
	}

	return cmd, nil
}

func (c CreateDriverCommand) Validate() error {
	return c.guard.Validate(ErrCreateDriverCommandIsNotConstructed)
}

func (c CreateDriverCommand) DriverID() kernel.UUID   { return c.driverID }
func (c CreateDriverCommand) ExternalID() string      { return c.externalID }
func (c CreateDriverCommand) DisplayName() string     { return c.displayName }
func (c CreateDriverCommand) Role() kernel.Role       { return c.role }
func (c CreateDriverCommand) PayRate() driver.PayRate { return c.payRate }
func (c CreateDriverCommand) Actor() kernel.Actor     { return c.actor }

func (c *CreateDriverCommand) setRole(role kernel.Role) error {
	parsed, err := kernel.ParseRole(string(role))
	if err != nil {
		return err
	}
	c.role = parsed
	return nil
}

func requireText(name, value string) error {
	if value == "" {
		return errs.NewValueIsRequiredError(name)
	}
	return nil
}
