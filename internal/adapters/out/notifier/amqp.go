package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/errs"

	amqp "github.com/rabbitmq/amqp091-go"
)

var _ ports.Notifier = (*AMQP)(nil)

// Publisher is the part of *amqp.Channel the notifier needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQP publishes notifications as JSON for the bot process to render. The dedup key is
// sent as the message id.
type AMQP struct {
	ch         Publisher
	exchange   string
	routingKey string
}

type notificationMessage struct {
	Kind        ports.NotificationKind `json:"kind"`
	Recipient   recipientMessage       `json:"recipient"`
	Text        string                 `json:"text"`
	ActionToken string                 `json:"action_token,omitempty"`
	PaymentIDs  []string               `json:"payment_ids"`
	DedupKey    string                 `json:"dedup_key"`
	CreatedAt   time.Time              `json:"created_at"`
}

type recipientMessage struct {
	DriverID    string `json:"driver_id"`
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name"`
}

// NewAMQP publishes to exchange with routingKey. An empty exchange with the queue name as
// key uses the default exchange.
func NewAMQP(ch Publisher, exchange, routingKey string) (*AMQP, error) {
	if ch == nil {
		return nil, errs.NewValueIsRequiredError("amqp channel")
	}
	if routingKey == "" {
		return nil, errs.NewValueIsRequiredError("routing key")
	}
	return &AMQP{ch: ch, exchange: exchange, routingKey: routingKey}, nil
}

func (a *AMQP) Send(ctx context.Context, n ports.Notification) error {
	ids := make([]string, 0, len(n.PaymentIDs))
	for _, id := range n.PaymentIDs {
		ids = append(ids, id.String())
	}

	body, err := json.Marshal(notificationMessage{
		Kind: n.Kind,
		Recipient: recipientMessage{
			DriverID:    n.Recipient.DriverID.String(),
			ExternalID:  n.Recipient.ExternalID,
			DisplayName: n.Recipient.DisplayName,
		},
		Text:        n.Text,
		ActionToken: n.ActionToken,
		PaymentIDs:  ids,
		DedupKey:    n.DedupKey,
		CreatedAt:   n.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	err = a.ch.PublishWithContext(ctx, a.exchange, a.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.DedupKey,
		Type:         string(n.Kind),
		Timestamp:    n.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s notification: %w", n.Kind, err)
	}
	return nil
}
