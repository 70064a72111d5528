package ports

import (
	"context"
	"time"

	"lastmile/internal/core/domain/model/kernel"
)

type NotificationKind string

const (
	NotificationSalaryDue     NotificationKind = "salary-due"
	NotificationSalaryOverdue NotificationKind = "salary-overdue"
)

// Recipient is the manager a notification is addressed to.
type Recipient struct {
	DriverID    kernel.UUID
	ExternalID  string
	DisplayName string
}

// Notification is one emitted (recipient, message, group action) tuple.
type Notification struct {
	Recipient Recipient
	Kind      NotificationKind
	Text      string
	// ActionToken confirms every payment in PaymentIDs at once. Empty when no batch
	// action is offered.
	ActionToken string
	PaymentIDs  []kernel.UUID
	// DedupKey is stable for the same kind, day and payment set so that receivers can
	// drop at-least-once duplicates.
	DedupKey  string
	CreatedAt time.Time
}

// Notifier delivers notifications on a best-effort basis. Implementations must honour
// ctx deadlines.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
