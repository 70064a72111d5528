package commands

import (
	"context"
	"fmt"
	"time"

	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/salary"
	"lastmile/internal/pkg/clock"
)

// PaymentResult is the per-payment outcome of a confirmation.
type PaymentResult struct {
	PaymentID kernel.UUID
	// Status is the stored status after the call. Unknown when Err is set.
	Status salary.Status
	// Changed is false for a payment that was already paid.
	Changed bool
	Err     error
}

// ConfirmSalaryPaymentsCommandHandler confirms salary payments.
//
// Confirming an already paid payment is a no-op, because notification buttons can be
// pressed several times by one or many managers. Each payment is confirmed in its own
// savepoint; a failing payment is reported in its result and the others still commit.
type ConfirmSalaryPaymentsCommandHandler struct {
	uowFactory SalaryUoWFactory
	clock      clock.Clock
}

func NewConfirmSalaryPaymentsCommandHandler(uowFactory SalaryUoWFactory,
	clk clock.Clock) ConfirmSalaryPaymentsCommandHandler {
	return ConfirmSalaryPaymentsCommandHandler{uowFactory: uowFactory, clock: clk}
}

func (h *ConfirmSalaryPaymentsCommandHandler) Handle(ctx context.Context,
	cmd ConfirmSalaryPaymentsCommand) ([]PaymentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := cmd.Actor().RequireManager("confirm salary payment"); err != nil {
		return nil, err
	}

	var results []PaymentResult
	err := inTx(ctx, h.uowFactory.Create, func(uow SalaryUoW) error {
		results = confirmPayments(ctx, uow, uow.SalaryPaymentRepository(), cmd.PaymentIDs(), cmd.Actor(),
			h.clock.Now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

type paymentRepository interface {
	GetForUpdate(ctx context.Context, id kernel.UUID) (*salary.Payment, error)
	Update(ctx context.Context, p *salary.Payment, expected salary.Status) error
}

func confirmPayments(ctx context.Context, sp SavepointManager, repo paymentRepository, ids []kernel.UUID,
	actor kernel.Actor, now time.Time) []PaymentResult {
	results := make([]PaymentResult, 0, len(ids))
	for i, id := range ids {
		result := PaymentResult{PaymentID: id}
		err := inSavepoint(ctx, sp, fmt.Sprintf("confirm_payment_%d", i), func() error {
			p, err := repo.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			previous := p.Status()
			changed, err := p.MarkPaid(actor, now)
			if err != nil {
				return err
			}
			if changed {
				if err = repo.Update(ctx, p, previous); err != nil {
					return err
				}
			}
			result.Status = p.Status()
			result.Changed = changed
			return nil
		})
		if err != nil {
			result = PaymentResult{PaymentID: id, Status: salary.Unknown, Err: err}
		}
		results = append(results, result)
	}
	return results
}
