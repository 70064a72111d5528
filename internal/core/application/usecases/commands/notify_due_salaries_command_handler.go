package commands

import (
	"context"

	"lastmile/internal/core/domain/services"
	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/clock"
)

// NotifyDueSalariesCommandHandler notifies managers about pending payments due today.
//
// Every manager gets one notification listing every due payment grouped by driver,
// with one confirm-salary-batch token shared by all recipients. Selection is by status
// only: a second run before anyone confirms resends the same notification with the
// same dedup key, and payments confirmed in between drop out of the next run.
type NotifyDueSalariesCommandHandler struct {
	uowFactory SalaryUoWFactory
	notifier   ports.Notifier
	calendar   services.PaymentCalendar
	clock      clock.Clock
	settings   NotifierSettings
}

func NewNotifyDueSalariesCommandHandler(uowFactory SalaryUoWFactory, notifier ports.Notifier,
	calendar services.PaymentCalendar, clk clock.Clock, settings NotifierSettings) NotifyDueSalariesCommandHandler {
	return NotifyDueSalariesCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		calendar:   calendar,
		clock:      clk,
		settings:   settings,
	}
}

func (h *NotifyDueSalariesCommandHandler) Handle(ctx context.Context,
	cmd NotifyDueSalariesCommand) (SalaryNotificationReport, error) {
	if err := cmd.Validate(); err != nil {
		return SalaryNotificationReport{}, err
	}

	now := h.clock.Now()
	today := h.calendar.Today(now)
	report := SalaryNotificationReport{Day: today}

	var batch salaryBatch
	err := inTx(ctx, h.uowFactory.Create, func(uow SalaryUoW) error {
		due, err := uow.SalaryPaymentRepository().ListDueOn(ctx, today)
		if err != nil {
			return err
		}
		batch, err = loadSalaryBatch(ctx, uow, due, now, h.settings.TokenTTL)
		return err
	})
	if err != nil {
		return SalaryNotificationReport{}, err
	}
	if len(batch.payments) == 0 {
		return report, nil
	}

	report.Payments = len(batch.payments)
	report.ActionToken = batch.token
	text := dueDigest(batch, today, h.settings.Currency)
	report.Notifications, report.Failures = fanOut(ctx, h.notifier, h.settings.SendTimeout, batch,
		ports.NotificationSalaryDue, text, today, now)
	return report, nil
}
