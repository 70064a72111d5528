package commands

import (
	"errors"
	"strings"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/pkg/errs"
	"lastmile/internal/pkg/guard"
)

var ErrResolveActionTokenCommandIsNotConstructed = errors.New(
	"ResolveActionTokenCommand must be created via NewResolveActionTokenCommand constructor",
)

// ResolveActionTokenCommand redeems a token. Proof is applied to every target of a bulk
// package token and ignored for salary batches.
type ResolveActionTokenCommand struct { //nolint:recvcheck //using for validation
	key   string
	proof shipment.ProofInput
	actor kernel.Actor

	guard guard.ConstructorGuard
}

func NewResolveActionTokenCommand(key string, proof shipment.ProofInput, actor kernel.Actor) (ResolveActionTokenCommand, error) {
	key = strings.TrimSpace(key)
	errList := []error{actor.Validate()}
	if key == "" {
		errList = append(errList, errs.NewValueIsRequiredError("token"))
	}
	if err := errors.Join(errList...); err != nil {
		return ResolveActionTokenCommand{}, err
	}
	return ResolveActionTokenCommand{key: key, proof: proof, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (c ResolveActionTokenCommand) Validate() error {
	return c.guard.Validate(ErrResolveActionTokenCommandIsNotConstructed)
}

func (c ResolveActionTokenCommand) Key() string                { return c.key }
func (c ResolveActionTokenCommand) Proof() shipment.ProofInput { return c.proof }
func (c ResolveActionTokenCommand) Actor() kernel.Actor        { return c.actor }
