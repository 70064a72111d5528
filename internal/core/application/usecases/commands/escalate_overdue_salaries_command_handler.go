package commands

import (
	"context"

	"lastmile/internal/core/domain/services"
	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/clock"
)

// EscalateOverdueSalariesCommandHandler moves payments past due to overdue and
// notifies managers.
//
// The pending to overdue transition is one batch update committed on its own before
// any notification is composed, so it is visible to concurrent readers whatever
// happens to the sends. A second run on the same day changes no status and may resend
// the notification.
type EscalateOverdueSalariesCommandHandler struct {
	uowFactory SalaryUoWFactory
	notifier   ports.Notifier
	calendar   services.PaymentCalendar
	clock      clock.Clock
	settings   NotifierSettings
}

func NewEscalateOverdueSalariesCommandHandler(uowFactory SalaryUoWFactory, notifier ports.Notifier,
	calendar services.PaymentCalendar, clk clock.Clock, settings NotifierSettings) EscalateOverdueSalariesCommandHandler {
	return EscalateOverdueSalariesCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		calendar:   calendar,
		clock:      clk,
		settings:   settings,
	}
}

func (h *EscalateOverdueSalariesCommandHandler) Handle(ctx context.Context,
	cmd EscalateOverdueSalariesCommand) (SalaryNotificationReport, error) {
	if err := cmd.Validate(); err != nil {
		return SalaryNotificationReport{}, err
	}

	now := h.clock.Now()
	today := h.calendar.Today(now)
	report := SalaryNotificationReport{Day: today}

	err := inTx(ctx, h.uowFactory.Create, func(uow SalaryUoW) error {
		n, err := uow.SalaryPaymentRepository().MarkOverdueDueBefore(ctx, today, now)
		report.Escalated = n
		return err
	})
	if err != nil {
		return SalaryNotificationReport{}, err
	}

	var batch salaryBatch
	err = inTx(ctx, h.uowFactory.Create, func(uow SalaryUoW) error {
		unpaid, err := uow.SalaryPaymentRepository().ListUnpaidDueBefore(ctx, today)
		if err != nil {
			return err
		}
		batch, err = loadSalaryBatch(ctx, uow, unpaid, now, h.settings.TokenTTL)
		return err
	})
	if err != nil {
		return report, err
	}
	if len(batch.payments) == 0 {
		return report, nil
	}

	report.Payments = len(batch.payments)
	report.ActionToken = batch.token
	text := overdueDigest(batch, today, h.settings.Currency)
	report.Notifications, report.Failures = fanOut(ctx, h.notifier, h.settings.SendTimeout, batch,
		ports.NotificationSalaryOverdue, text, today, now)
	return report, nil
}
