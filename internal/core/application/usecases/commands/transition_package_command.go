package commands

import (
	"errors"
	"fmt"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/pkg/errs"
	"lastmile/internal/pkg/guard"
)

var ErrTransitionPackageCommandIsNotConstructed = errors.New(
	"TransitionPackageCommand must be created via NewTransitionPackageCommand constructor",
)

// TransitionPackageCommand moves a pending package to delivered or failed with its proof.
//
// Example:
//
//	cmd, err := NewTransitionPackageCommand(packageID, shipment.Delivered, shipment.ProofInput{
//	    ReceiverName:     "Maria Souza",
//	    ReceiverDocument: "123.456.789-00",
//	}, actor)
type TransitionPackageCommand struct { //nolint:recvcheck //using for validation
	packageID kernel.UUID
	target    shipment.Status
	proof     shipment.ProofInput
	actor     kernel.Actor

	guard guard.ConstructorGuard
}

// NewTransitionPackageCommand validates the target and the evidence it requires.
func NewTransitionPackageCommand(packageID kernel.UUID, target shipment.Status, proof shipment.ProofInput,
	actor kernel.Actor) (TransitionPackageCommand, error) {
	if err := errors.Join(packageID.Validate(), validateOutcome(target, proof), actor.Validate()); err != nil {
		return TransitionPackageCommand{}, err
	}

	return TransitionPackageCommand{
		packageID: packageID,
		target:    target,
		proof:     proof,
		actor:     actor,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c TransitionPackageCommand) Validate() error {
	return c.guard.Validate(ErrTransitionPackageCommandIsNotConstructed)
}

func (c TransitionPackageCommand) PackageID() kernel.UUID     { return c.packageID }
func (c TransitionPackageCommand) Target() shipment.Status    { return c.target }
func (c TransitionPackageCommand) Proof() shipment.ProofInput { return c.proof }
func (c TransitionPackageCommand) Actor() kernel.Actor        { return c.actor }

func validateOutcome(target shipment.Status, proof shipment.ProofInput) error {
	if !target.IsTargetable() {
		return errs.NewValueIsInvalidErrorWithCause("target status",
			fmt.Errorf("%s is not a terminal package status", target))
	}
	return proof.Validate(target)
}
