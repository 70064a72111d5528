// Package notifier holds the ports.Notifier backends: a structured log sink, the Telegram
// Bot API and an AMQP publisher feeding the bot process.
package notifier

import (
	"context"
	"log/slog"

	"lastmile/internal/core/ports"
)

var _ ports.Notifier = (*Log)(nil)

// Log writes notifications to the process log. It is the default backend and never fails.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger.With("component", "notifier")}
}

func (l *Log) Send(ctx context.Context, n ports.Notification) error {
	// The action token is a bearer credential and stays out of the log.
	l.logger.InfoContext(ctx, "notification",
		"kind", n.Kind,
		"recipient_id", n.Recipient.DriverID.String(),
		"recipient", n.Recipient.DisplayName,
		"payments", len(n.PaymentIDs),
		"dedup_key", n.DedupKey,
		"action", n.ActionToken != "",
		"text", n.Text,
	)
	return nil
}
