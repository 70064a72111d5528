// Package amqp is the bot's asynchronous front door: commands arrive as JSON envelopes on
// a queue and answers go back to the delivery's reply_to queue.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/domain/model/actiontoken"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/route"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/pkg/auth"
	"lastmile/internal/pkg/errs"

	amqp091 "github.com/rabbitmq/amqp091-go"
)

// ErrDeliveriesClosed is returned by Run when the broker closes the delivery channel.
var ErrDeliveriesClosed = errors.New("amqp deliveries channel closed")

type (
	transitionPackageHandler interface {
		Handle(ctx context.Context, cmd commands.TransitionPackageCommand) (commands.PackageTransitionResult, error)
	}
	resolveActionTokenHandler interface {
		Handle(ctx context.Context, cmd commands.ResolveActionTokenCommand) (commands.ResolveResult, error)
	}
	confirmSalaryPaymentsHandler interface {
		Handle(ctx context.Context, cmd commands.ConfirmSalaryPaymentsCommand) ([]commands.PaymentResult, error)
	}
	updateDriverLocationHandler interface {
		Handle(ctx context.Context, cmd commands.UpdateDriverLocationCommand) error
	}
	completeRouteHandler interface {
		Handle(ctx context.Context, cmd commands.CompleteRouteCommand) (route.Snapshot, error)
	}
	finalizeRouteHandler interface {
		Handle(ctx context.Context, cmd commands.FinalizeRouteCommand) (commands.FinalizeRouteResult, error)
	}
	issueActionTokenHandler interface {
		Handle(ctx context.Context, cmd commands.IssueActionTokenCommand) (actiontoken.Snapshot, error)
	}
)

// Handlers are the command handlers reachable from the bot.
type Handlers struct {
	TransitionPackage     transitionPackageHandler
	ResolveActionToken    resolveActionTokenHandler
	ConfirmSalaryPayments confirmSalaryPaymentsHandler
	UpdateDriverLocation  updateDriverLocationHandler
	CompleteRoute         completeRouteHandler
	FinalizeRoute         finalizeRouteHandler
	IssueActionToken      issueActionTokenHandler
}

// Publisher is the part of *amqp091.Channel used to send replies.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

type Options struct {
	Logger *slog.Logger
	// HandleTimeout bounds one command including its reply; zero disables the bound.
	HandleTimeout     time.Duration
	StrictCoordinates bool
}

type Consumer struct {
	h        Handlers
	verifier *auth.JWT
	replies  Publisher
	logger   *slog.Logger
	timeout  time.Duration
	strict   bool
}

func NewConsumer(h Handlers, verifier *auth.JWT, replies Publisher, opts Options) (*Consumer, error) {
	if verifier == nil {
		return nil, errs.NewValueIsRequiredError("jwt verifier")
	}
	if replies == nil {
		return nil, errs.NewValueIsRequiredError("reply publisher")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		h:        h,
		verifier: verifier,
		replies:  replies,
		logger:   logger.With("component", "amqp-consumer"),
		timeout:  opts.HandleTimeout,
		strict:   opts.StrictCoordinates,
	}, nil
}

// Run handles deliveries until ctx is cancelled or the channel closes. Deliveries must come
// from a consumer with auto-ack disabled.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp091.Delivery) error {
	c.logger.Info("consumer started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopped")
			return ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				c.logger.Warn("deliveries channel closed")
				return ErrDeliveriesClosed
			}
			c.Handle(ctx, msg)
		}
	}
}

// Handle runs one delivery. Transient store failures are requeued once; every other outcome
// is acknowledged after the reply is sent.
func (c *Consumer) Handle(ctx context.Context, msg amqp091.Delivery) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	command, result, err := c.dispatch(ctx, msg.Body)
	logger := c.logger.With("command", command, "message_id", msg.MessageId)

	if err != nil && errors.Is(err, errs.ErrTransientStore) && !msg.Redelivered {
		logger.WarnContext(ctx, "requeue after transient failure", "error", err)
		if nackErr := msg.Nack(false, true); nackErr != nil {
			logger.ErrorContext(ctx, "nack delivery", "error", nackErr)
		}
		return
	}

	out := reply{OK: err == nil, Result: result}
	if err != nil {
		out.Error = errorOf(err)
		if out.Error.Code == string(errs.CodeInternal) {
			logger.ErrorContext(ctx, "command failed", "error", err)
		} else {
			logger.InfoContext(ctx, "command rejected", "code", out.Error.Code, "error", err)
		}
	}
	if pubErr := c.reply(ctx, msg, out); pubErr != nil {
		logger.ErrorContext(ctx, "publish reply", "error", pubErr)
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		logger.ErrorContext(ctx, "ack delivery", "error", ackErr)
	}
}

func (c *Consumer) reply(ctx context.Context, msg amqp091.Delivery, out reply) error {
	if msg.ReplyTo == "" {
		return nil
	}
	body, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	return c.replies.PublishWithContext(ctx, "", msg.ReplyTo, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		CorrelationId: msg.CorrelationId,
		Timestamp:     time.Now().UTC(),
		Body:          body,
	})
}

func (c *Consumer) dispatch(ctx context.Context, body []byte) (string, any, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", nil, errs.NewValueIsInvalidErrorWithCause("envelope", err)
	}
	actor, err := c.verifier.Actor(env.ActorToken)
	if err != nil {
		return env.Command, nil, err
	}

	var result any
	switch env.Command {
	case CommandTransitionPackage:
		result, err = c.transitionPackage(ctx, env.Payload, actor)
	case CommandResolveToken:
		result, err = c.resolveToken(ctx, env.Payload, actor)
	case CommandConfirmSalaryPayments:
		result, err = c.confirmSalaryPayments(ctx, env.Payload, actor)
	case CommandUpdateLocation:
		result, err = c.updateLocation(ctx, env.Payload, actor)
	case CommandCompleteRoute:
		result, err = c.completeRoute(ctx, env.Payload, actor)
	case CommandFinalizeRoute:
		result, err = c.finalizeRoute(ctx, env.Payload, actor)
	case CommandIssueToken:
		result, err = c.issueToken(ctx, env.Payload, actor)
	default:
		err = errs.NewValueIsInvalidErrorWithCause("command", fmt.Errorf("unknown command %q", env.Command))
	}
	return env.Command, result, err
}

func decode(payload json.RawMessage, dst any) error {
	if len(payload) == 0 {
		return errs.NewValueIsRequiredError("payload")
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("payload", err)
	}
	return nil
}

func (c *Consumer) transitionPackage(ctx context.Context, payload json.RawMessage, actor kernel.Actor) (any, error) {
	var p transitionPackagePayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	id, err := parseID("package_id", p.PackageID)
	if err != nil {
		return nil, err
	}
	target, err := shipment.ParseStatus(p.Status)
	if err != nil {
		return nil, err
	}
	proof, err := p.Proof.input(c.strict)
	if err != nil {
		return nil, err
	}
	cmd, err := commands.NewTransitionPackageCommand(id, target, proof, actor)
	if err != nil {
		return nil, err
	}
	r, err := c.h.TransitionPackage.Handle(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return transitionResult{
		PackageID:      r.PackageID.String(),
		RouteID:        r.RouteID.String(),
		Status:         r.Status.String(),
		RouteCompleted: r.RouteCompleted,
	}, nil
}

func (c *Consumer) resolveToken(ctx context.Context, payload json.RawMessage, actor kernel.Actor) (any, error) {
	var p resolveTokenPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	proof, err := p.Proof.input(c.strict)
	if err != nil {
		return nil, err
	}
	cmd, err := commands.NewResolveActionTokenCommand(p.Token, proof, actor)
	if err != nil {
		return nil, err
	}
	r, err := c.h.ResolveActionToken.Handle(ctx, cmd)
	if err != nil {
		return nil, err
	}
	out := batchResult{Consumed: r.Consumed, Succeeded: r.Succeeded(), Results: make([]targetResult, 0, len(r.Results))}
	for _, t := range r.Results {
		tr := targetResult{TargetID: t.TargetID.String(), OK: t.OK, Status: t.Status, RouteCompleted: t.RouteCompleted}
		if t.Err != nil {
			tr.Error = errorOf(t.Err)
		}
		out.Results = append(out.Results, tr)
	}
	return out, nil
}

func (c *Consumer) confirmSalaryPayments(ctx context.Context, payload json.RawMessage, actor kernel.Actor) (any, error) {
	var p confirmSalaryPaymentsPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	ids, err := kernel.UUIDsFromStrings(p.PaymentIDs)
	if err != nil {
		return nil, err
	}
	cmd, err := commands.NewConfirmSalaryPaymentsCommand(ids, actor)
	if err != nil {
		return nil, err
	}
	results, err := c.h.ConfirmSalaryPayments.Handle(ctx, cmd)
	if err != nil {
		return nil, err
	}
	out := batchResult{Consumed: true, Results: make([]targetResult, 0, len(results))}
	for _, r := range results {
		tr := targetResult{TargetID: r.PaymentID.String(), OK: r.Err == nil}
		if r.Err != nil {
			tr.Error = errorOf(r.Err)
		} else {
			tr.Status = r.Status.String()
			out.Succeeded++
		}
		out.Results = append(out.Results, tr)
	}
	return out, nil
}

func (c *Consumer) updateLocation(ctx context.Context, payload json.RawMessage, actor kernel.Actor) (any, error) {
	var p updateLocationPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	id, err := parseID("driver_id", p.DriverID)
	if err != nil {
		return nil, err
	}
	cmd, err := commands.NewUpdateDriverLocationCommand(id, p.Lat, p.Lon, p.AccuracyM, actor)
	if err != nil {
		return nil, err
	}
	return nil, c.h.UpdateDriverLocation.Handle(ctx, cmd)
}

func (c *Consumer) completeRoute(ctx context.Context, payload json.RawMessage, actor kernel.Actor) (any, error) {
	var p routePayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	id, err := parseID("route_id", p.RouteID)
	if err != nil {
		return nil, err
	}
	cmd, err := commands.NewCompleteRouteCommand(id, actor)
	if err != nil {
		return nil, err
	}
	snapshot, err := c.h.CompleteRoute.Handle(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return routeResult{RouteID: snapshot.ID.String(), Status: snapshot.Status.String()}, nil
}

func (c *Consumer) finalizeRoute(ctx context.Context, payload json.RawMessage, actor kernel.Actor) (any, error) {
	var p finalizeRoutePayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	id, err := parseID("route_id", p.RouteID)
	if err != nil {
		return nil, err
	}
	cmd, err := commands.NewFinalizeRouteCommand(id, p.inputs(), actor)
	if err != nil {
		return nil, err
	}
	r, err := c.h.FinalizeRoute.Handle(ctx, cmd)
	if err != nil {
		return nil, err
	}
	out := finalizeResult{
		RouteID:      r.Route.ID.String(),
		Revenue:      r.Settlement.Revenue,
		DriverSalary: r.Settlement.DriverSalary,
		NetProfit:    r.Settlement.NetProfit,
	}
	if r.SalaryPaymentID != nil {
		out.SalaryPaymentID = r.SalaryPaymentID.String()
	}
	return out, nil
}

func (c *Consumer) issueToken(ctx context.Context, payload json.RawMessage, actor kernel.Actor) (any, error) {
	var p issueTokenPayload
	if err := decode(payload, &p); err != nil {
		return nil, err
	}
	kind, err := actiontoken.ParseKind(p.Kind)
	if err != nil {
		return nil, err
	}
	targets, err := kernel.UUIDsFromStrings(p.TargetIDs)
	if err != nil {
		return nil, err
	}
	var ttl *time.Duration
	if p.TTLSeconds != nil {
		d := time.Duration(*p.TTLSeconds) * time.Second
		ttl = &d
	}
	cmd, err := commands.NewIssueActionTokenCommand(kind, targets, ttl, actor)
	if err != nil {
		return nil, err
	}
	snapshot, err := c.h.IssueActionToken.Handle(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return tokenResult{Token: snapshot.Key, Kind: string(snapshot.Kind), ExpiresAt: snapshot.ExpiresAt}, nil
}
