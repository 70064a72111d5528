package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/domain/model/shipment"
	"lastmile/internal/pkg/auth"
	"lastmile/internal/pkg/errs"

	amqp091 "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ackRecorder struct {
	acks     int
	nacks    int
	requeued bool
}

func (a *ackRecorder) Ack(uint64, bool) error { a.acks++; return nil }

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacks++
	a.requeued = requeue
	return nil
}

func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacks++
	a.requeued = requeue
	return nil
}

type published struct {
	key string
	msg amqp091.Publishing
}

type replyRecorder struct{ sent []published }

func (r *replyRecorder) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp091.Publishing) error {
	r.sent = append(r.sent, published{key: key, msg: msg})
	return nil
}

type transitionMock struct{ mock.Mock }

func (m *transitionMock) Handle(ctx context.Context,
	cmd commands.TransitionPackageCommand) (commands.PackageTransitionResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.PackageTransitionResult), args.Error(1)
}

type decodedReply struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *replyError     `json:"error"`
}

type consumerFixture struct {
	t          *testing.T
	consumer   *Consumer
	transition *transitionMock
	replies    *replyRecorder
	jwt        *auth.JWT
}

func newConsumerFixture(t *testing.T) *consumerFixture {
	t.Helper()
	verifier, err := auth.NewJWT("bot-secret", "lastmile")
	require.NoError(t, err)
	f := &consumerFixture{t: t, transition: &transitionMock{}, replies: &replyRecorder{}, jwt: verifier}
	f.consumer, err = NewConsumer(Handlers{TransitionPackage: f.transition}, verifier, f.replies,
		Options{HandleTimeout: time.Second})
	require.NoError(t, err)
	return f
}

func (f *consumerFixture) delivery(command string, payload any, redelivered bool) (amqp091.Delivery, *ackRecorder) {
	f.t.Helper()
	actor, err := kernel.NewActor("tg-driver", kernel.RoleDriver)
	require.NoError(f.t, err)
	token, err := f.jwt.Issue(actor, time.Hour, time.Now())
	require.NoError(f.t, err)
	raw, err := json.Marshal(payload)
	require.NoError(f.t, err)
	body, err := json.Marshal(envelope{Command: command, ActorToken: token, Payload: raw})
	require.NoError(f.t, err)

	acks := &ackRecorder{}
	return amqp091.Delivery{
		Acknowledger:  acks,
		Body:          body,
		ReplyTo:       "bot.replies",
		CorrelationId: "corr-1",
		Redelivered:   redelivered,
	}, acks
}

func (f *consumerFixture) lastReply() decodedReply {
	f.t.Helper()
	require.NotEmpty(f.t, f.replies.sent)
	last := f.replies.sent[len(f.replies.sent)-1]
	var out decodedReply
	require.NoError(f.t, json.Unmarshal(last.msg.Body, &out))
	return out
}

func deliveredPayload(packageID kernel.UUID) transitionPackagePayload {
	return transitionPackagePayload{
		PackageID: packageID.String(),
		Status:    "delivered",
		Proof:     &proofPayload{ReceiverName: "Maria", ReceiverDocument: "123.456.789-00"},
	}
}

func TestConsumer_RepliesWithResult(t *testing.T) {
	// Given
	f := newConsumerFixture(t)
	packageID, routeID := kernel.NewUUID(), kernel.NewUUID()
	f.transition.On("Handle", mock.Anything, mock.Anything).Return(commands.PackageTransitionResult{
		PackageID:      packageID,
		RouteID:        routeID,
		Status:         shipment.Delivered,
		RouteCompleted: true,
	}, nil).Once()
	msg, acks := f.delivery(CommandTransitionPackage, deliveredPayload(packageID), false)

	// When
	f.consumer.Handle(context.Background(), msg)

	// Then
	assert.Equal(t, 1, acks.acks)
	require.Len(t, f.replies.sent, 1)
	assert.Equal(t, "bot.replies", f.replies.sent[0].key)
	assert.Equal(t, "corr-1", f.replies.sent[0].msg.CorrelationId)

	out := f.lastReply()
	require.True(t, out.OK)
	var result transitionResult
	require.NoError(t, json.Unmarshal(out.Result, &result))
	assert.Equal(t, packageID.String(), result.PackageID)
	assert.Equal(t, "delivered", result.Status)
	assert.True(t, result.RouteCompleted)
	f.transition.AssertExpectations(t)
}

func TestConsumer_BusinessErrorIsAcked(t *testing.T) {
	f := newConsumerFixture(t)
	packageID := kernel.NewUUID()
	f.transition.On("Handle", mock.Anything, mock.Anything).Return(commands.PackageTransitionResult{},
		errs.NewInvalidTransitionError("package", packageID.String(), "delivered", "delivered")).Once()
	msg, acks := f.delivery(CommandTransitionPackage, deliveredPayload(packageID), false)

	f.consumer.Handle(context.Background(), msg)

	assert.Equal(t, 1, acks.acks)
	assert.Zero(t, acks.nacks)
	out := f.lastReply()
	assert.False(t, out.OK)
	require.NotNil(t, out.Error)
	assert.Equal(t, "invalid_transition", out.Error.Code)
	assert.Equal(t, "package", out.Error.Entity)
}

func TestConsumer_TransientErrorIsRequeuedOnce(t *testing.T) {
	f := newConsumerFixture(t)
	packageID := kernel.NewUUID()
	f.transition.On("Handle", mock.Anything, mock.Anything).Return(commands.PackageTransitionResult{},
		errs.NewStoreUnavailableError("update package", errors.New("connection reset"))).Twice()

	t.Run("first_delivery", func(t *testing.T) {
		msg, acks := f.delivery(CommandTransitionPackage, deliveredPayload(packageID), false)

		f.consumer.Handle(context.Background(), msg)

		assert.Zero(t, acks.acks)
		assert.Equal(t, 1, acks.nacks)
		assert.True(t, acks.requeued)
		assert.Empty(t, f.replies.sent)
	})

	t.Run("redelivered", func(t *testing.T) {
		msg, acks := f.delivery(CommandTransitionPackage, deliveredPayload(packageID), true)

		f.consumer.Handle(context.Background(), msg)

		assert.Equal(t, 1, acks.acks)
		assert.Zero(t, acks.nacks)
		out := f.lastReply()
		require.NotNil(t, out.Error)
		assert.Equal(t, "transient_store_error", out.Error.Code)
	})

	f.transition.AssertExpectations(t)
}

func TestConsumer_RejectsBeforeDispatch(t *testing.T) {
	f := newConsumerFixture(t)

	t.Run("bad_actor_token", func(t *testing.T) {
		body, err := json.Marshal(envelope{Command: CommandTransitionPackage, ActorToken: "not-a-jwt",
			Payload: json.RawMessage(`{}`)})
		require.NoError(t, err)
		acks := &ackRecorder{}

		f.consumer.Handle(context.Background(), amqp091.Delivery{Acknowledger: acks, Body: body, ReplyTo: "bot.replies"})

		assert.Equal(t, 1, acks.acks)
		assert.Equal(t, codeUnauthenticated, f.lastReply().Error.Code)
	})

	t.Run("unknown_command", func(t *testing.T) {
		msg, acks := f.delivery("drop_tables", map[string]string{}, false)

		f.consumer.Handle(context.Background(), msg)

		assert.Equal(t, 1, acks.acks)
		out := f.lastReply()
		assert.Equal(t, "validation_error", out.Error.Code)
		assert.Equal(t, "command", out.Error.Entity)
	})

	t.Run("missing_proof", func(t *testing.T) {
		msg, acks := f.delivery(CommandTransitionPackage,
			transitionPackagePayload{PackageID: kernel.NewUUID().String(), Status: "delivered"}, false)

		f.consumer.Handle(context.Background(), msg)

		assert.Equal(t, 1, acks.acks)
		assert.Equal(t, "validation_error", f.lastReply().Error.Code)
	})

	t.Run("malformed_envelope", func(t *testing.T) {
		acks := &ackRecorder{}

		f.consumer.Handle(context.Background(), amqp091.Delivery{Acknowledger: acks, Body: []byte("{"), ReplyTo: "r"})

		assert.Equal(t, 1, acks.acks)
		assert.Equal(t, "envelope", f.lastReply().Error.Entity)
	})

	f.transition.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestConsumer_Run(t *testing.T) {
	t.Run("closed_channel", func(t *testing.T) {
		f := newConsumerFixture(t)
		deliveries := make(chan amqp091.Delivery)
		close(deliveries)

		err := f.consumer.Run(context.Background(), deliveries)

		require.ErrorIs(t, err, ErrDeliveriesClosed)
	})

	t.Run("cancelled", func(t *testing.T) {
		f := newConsumerFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := f.consumer.Run(ctx, make(chan amqp091.Delivery))

		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewConsumer_RequiresCollaborators(t *testing.T) {
	verifier, err := auth.NewJWT("s", "")
	require.NoError(t, err)

	_, err = NewConsumer(Handlers{}, nil, &replyRecorder{}, Options{})
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = NewConsumer(Handlers{}, verifier, nil, Options{})
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
}
