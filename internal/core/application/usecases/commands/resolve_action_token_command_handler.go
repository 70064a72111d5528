package commands

import (
	"context"
	"fmt"

	"lastmile/internal/core/domain/model/actiontoken"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/pkg/clock"
)

// TargetResult is the outcome of the bound action for one target.
type TargetResult struct {
	TargetID kernel.UUID
	OK       bool
	// Status is the target's status after the action ("delivered", "paid", ...).
	Status         string
	RouteCompleted bool
	Err            error
}

// ResolveResult reports a token resolution.
type ResolveResult struct {
	Key      string
	Kind     actiontoken.Kind
	Consumed bool
	Results  []TargetResult
}

// Succeeded counts targets the action was applied to.
func (r ResolveResult) Succeeded() int {
	n := 0
	for _, t := range r.Results {
		if t.OK {
			n++
		}
	}
	return n
}

// ResolveActionTokenCommandHandler redeems deferred action tokens.
//
// The consumption marker and every target action share one transaction. The marker is
// written with a compare-and-set on consumed_at before any target is touched, so of
// two concurrent resolvers exactly one proceeds and the other gets
// *errs.TokenError wrapping errs.ErrTokenAlreadyConsumed. Each target runs in its own
// savepoint: a failing target is reported and skipped, and the token stays consumed.
//
// Proof payloads and actor permissions are checked before the token is consumed, so a
// malformed request never burns a token.
type ResolveActionTokenCommandHandler struct {
	uowFactory UoWFactory
	clock      clock.Clock
}

func NewResolveActionTokenCommandHandler(uowFactory UoWFactory, clk clock.Clock) ResolveActionTokenCommandHandler {
	return ResolveActionTokenCommandHandler{uowFactory: uowFactory, clock: clk}
}

func (h *ResolveActionTokenCommandHandler) Handle(ctx context.Context, cmd ResolveActionTokenCommand) (ResolveResult, error) {
	if err := cmd.Validate(); err != nil {
		return ResolveResult{}, err
	}

	var result ResolveResult
	err := inTx(ctx, h.uowFactory.Create, func(uow UoW) error {
		var err error
		result, err = h.resolve(ctx, uow, cmd)
		return err
	})
	if err != nil {
		return ResolveResult{}, err
	}
	return result, nil
}

func (h *ResolveActionTokenCommandHandler) resolve(ctx context.Context, uow UoW, cmd ResolveActionTokenCommand) (ResolveResult, error) {
	now := h.clock.Now()
	tokens := uow.ActionTokenRepository()

	token, err := tokens.Get(ctx, cmd.Key())
	if err != nil {
		return ResolveResult{}, err
	}
	if err = token.CheckRedeemable(now); err != nil {
		return ResolveResult{}, err
	}
	if err = checkResolvable(token.Kind(), cmd); err != nil {
		return ResolveResult{}, err
	}

	if err = token.Consume(cmd.Actor(), now); err != nil {
		return ResolveResult{}, err
	}
	if err = tokens.MarkConsumed(ctx, token); err != nil {
		return ResolveResult{}, err
	}

	result := ResolveResult{Key: token.Key(), Kind: token.Kind(), Consumed: true}
	switch token.Kind() {
	case actiontoken.ConfirmSalaryBatch:
		for _, r := range confirmPayments(ctx, uow, uow.SalaryPaymentRepository(), token.Targets(), cmd.Actor(), now) {
			result.Results = append(result.Results, TargetResult{
				TargetID: r.PaymentID,
				OK:       r.Err == nil,
				Status:   statusOf(r),
				Err:      r.Err,
			})
		}
	default:
		target := packageOutcome(token.Kind())
		for i, id := range token.Targets() {
			tr := TargetResult{TargetID: id}
			err := inSavepoint(ctx, uow, fmt.Sprintf("resolve_target_%d", i), func() error {
				applied, err := transitionPackage(ctx, uow, id, target, cmd.Proof(), cmd.Actor(), now)
				if err != nil {
					return err
				}
				tr.OK = true
				tr.Status = applied.Status.String()
				tr.RouteCompleted = applied.RouteCompleted
				return nil
			})
			if err != nil {
				tr = TargetResult{TargetID: id, Err: err}
			}
			result.Results = append(result.Results, tr)
		}
	}
	return result, nil
}

func checkResolvable(kind actiontoken.Kind, cmd ResolveActionTokenCommand) error {
	if kind == actiontoken.ConfirmSalaryBatch {
		return cmd.Actor().RequireManager("confirm salary batch")
	}
	return cmd.Proof().Validate(packageOutcome(kind))
}

func packageOutcome(kind actiontoken.Kind) shipment.Status {
	if kind == actiontoken.BulkMarkFailed {
		return shipment.Failed
	}
	return shipment.Delivered
}

func statusOf(r PaymentResult) string {
	if r.Err != nil {
		return ""
	}
	return r.Status.String()
}
