package commands

import (
	"context"
	"time"

	"lastmile/internal/core/domain/model/actiontoken"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/pkg/clock"
)

// IssueActionTokenCommandHandler issues deferred action tokens. The returned key is
// a bearer credential: whoever presents it may resolve the bound action once.
type IssueActionTokenCommandHandler struct {
	uowFactory SalaryUoWFactory
	clock      clock.Clock
	defaultTTL time.Duration
}

func NewIssueActionTokenCommandHandler(uowFactory SalaryUoWFactory, clk clock.Clock,
	defaultTTL time.Duration) IssueActionTokenCommandHandler {
	return IssueActionTokenCommandHandler{uowFactory: uowFactory, clock: clk, defaultTTL: defaultTTL}
}

// Handle returns the snapshot of the stored token.
func (h *IssueActionTokenCommandHandler) Handle(ctx context.Context, cmd IssueActionTokenCommand) (actiontoken.Snapshot, error) {
	if err := cmd.Validate(); err != nil {
		return actiontoken.Snapshot{}, err
	}
	if err := cmd.Actor().RequireManager("issue action token"); err != nil {
		return actiontoken.Snapshot{}, err
	}

	ttl := h.defaultTTL
	if cmd.TTL() != nil {
		ttl = *cmd.TTL()
	}

	var token *actiontoken.Token
	err := inTx(ctx, h.uowFactory.Create, func(uow SalaryUoW) error {
		var err error
		token, err = issueToken(ctx, uow, cmd.Kind(), cmd.Targets(), cmd.Actor(), h.clock.Now(), ttl)
		return err
	})
	if err != nil {
		return actiontoken.Snapshot{}, err
	}
	return token.Snapshot(), nil
}

func issueToken(ctx context.Context, uow ActionTokenRepoFactory, kind actiontoken.Kind, targets []kernel.UUID,
	actor kernel.Actor, now time.Time, ttl time.Duration) (*actiontoken.Token, error) {
	key, err := actiontoken.GenerateKey()
	if err != nil {
		return nil, err
	}
	token, err := actiontoken.New(key, kind, targets, actor.ID(), now, ttl)
	if err != nil {
		return nil, err
	}
	if err = uow.ActionTokenRepository().Add(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}
