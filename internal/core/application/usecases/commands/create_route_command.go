package commands

import (
	"errors"
	"fmt"
	"strings"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/pkg/errs"
	"lastmile/internal/pkg/guard"
)

var ErrCreateRouteCommandIsNotConstructed = errors.New(
	"CreateRouteCommand must be created via NewCreateRouteCommand constructor",
)

// PackageInput is one manifest line of a new route. Lat and Lon are optional but
// must be given together.
type PackageInput struct {
	TrackingCode string
	Address      string
	Neighborhood string
	Phone        string
	Lat          *float64
	Lon          *float64
}

// CreateRouteCommand creates an active route with its ordered packages.
//
// Example:
//
//	cmd, err := NewCreateRouteCommand(kernel.NewUUID(), "Zona Sul 05/03", &driverID, []PackageInput{
//	    {TrackingCode: "BR123456789", Address: "Rua Augusta, 100"},
//	    {TrackingCode: "BR987654321", Address: "Av. Paulista, 900"},
//	}, manager)
type CreateRouteCommand struct { //nolint:recvcheck //using for validation
	routeID  kernel.UUID
	name     string
	driverID *kernel.UUID
	packages []PackageInput
	actor    kernel.Actor

	guard guard.ConstructorGuard
}

func NewCreateRouteCommand(routeID kernel.UUID, name string, driverID *kernel.UUID, packages []PackageInput,
	actor kernel.Actor) (CreateRouteCommand, error) {
	cmd := CreateRouteCommand{
		routeID:  routeID,
		name:     strings.TrimSpace(name),
		driverID: driverID,
		actor:    actor,
		guard:    guard.NewConstructorGuard(),
	}

	errList := []error{routeID.Validate(), requireText("route name", cmd.name), actor.Validate()}
	if driverID != nil {
		errList = append(errList, driverID.Validate())
	}
	errList = append(errList, cmd.setPackages(packages))
	if err := errors.Join(errList...); err != nil {
		return CreateRouteCommand{}, err
	}

	return cmd, nil
}

func (c CreateRouteCommand) Validate() error {
	return c.guard.Validate(ErrCreateRouteCommandIsNotConstructed)
}

func (c CreateRouteCommand) RouteID() kernel.UUID   { return c.routeID }
func (c CreateRouteCommand) Name() string           { return c.name }
func (c CreateRouteCommand) DriverID() *kernel.UUID { return c.driverID }
func (c CreateRouteCommand) Actor() kernel.Actor    { return c.actor }

func (c CreateRouteCommand) Packages() []PackageInput {
	out := make([]PackageInput, len(c.packages))
	copy(out, c.packages)
	return out
}

func (c *CreateRouteCommand) setPackages(packages []PackageInput) error {
	seen := make(map[string]int, len(packages))
	normalized := make([]PackageInput, 0, len(packages))
	var errList []error
	for i, p := range packages {
		code, err := shipment.NormalizeTrackingCode(p.TrackingCode)
		if err != nil {
			errList = append(errList, fmt.Errorf("package %d: %w", i+1, err))
			continue
		}
		if first, ok := seen[code]; ok {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause("tracking code",
				fmt.Errorf("package %d repeats %q of package %d", i+1, code, first)))
			continue
		}
		seen[code] = i + 1
		p.TrackingCode = code
		normalized = append(normalized, p)
	}
	c.packages = normalized
	return errors.Join(errList...)
}
