package commands

import (
	"errors"
	"fmt"
	"time"

	"lastmile/internal/core/domain/model/actiontoken"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/errs"
	"lastmile/internal/pkg/guard"
)

var ErrIssueActionTokenCommandIsNotConstructed = errors.New(
	"IssueActionTokenCommand must be created via NewIssueActionTokenCommand constructor",
)

// IssueActionTokenCommand requests a deferred action token for a batch of targets.
// A nil ttl uses the configured default; a zero ttl never expires.
type IssueActionTokenCommand struct { //nolint:recvcheck //using for validation
	kind    actiontoken.Kind
	targets []kernel.UUID
	ttl     *time.Duration
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

func NewIssueActionTokenCommand(kind actiontoken.Kind, targets []kernel.UUID, ttl *time.Duration,
	actor kernel.Actor) (IssueActionTokenCommand, error) {
	_, kindErr := actiontoken.ParseKind(string(kind))
	errList := []error{kindErr, actor.Validate()}
	if len(targets) == 0 {
		errList = append(errList, errs.NewValueIsRequiredError("target ids"))
	}
	for _, id := range targets {
		errList = append(errList, id.Validate())
	}
	if ttl != nil && *ttl < 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("ttl", fmt.Errorf("%s is negative", *ttl)))
	}
	if err := errors.Join(errList...); err != nil {
		return IssueActionTokenCommand{}, err
	}

	ids := make([]kernel.UUID, len(targets))
	copy(ids, targets)
	return IssueActionTokenCommand{kind: kind, targets: ids, ttl: ttl, actor: actor, guard: guard.NewConstructorGuard()}, nil
}

func (c IssueActionTokenCommand) Validate() error {
	return c.guard.Validate(ErrIssueActionTokenCommandIsNotConstructed)
}

func (c IssueActionTokenCommand) Kind() actiontoken.Kind { return c.kind }
func (c IssueActionTokenCommand) TTL() *time.Duration    { return c.ttl }
func (c IssueActionTokenCommand) Actor() kernel.Actor    { return c.actor }

func (c IssueActionTokenCommand) Targets() []kernel.UUID {
	out := make([]kernel.UUID, len(c.targets))
	copy(out, c.targets)
	return out
}
