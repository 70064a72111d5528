package notifier_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"lastmile/internal/adapters/out/notifier"
	"lastmile/internal/core/domain/model/kernel"
	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/errs"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notification() ports.Notification {
	return ports.Notification{
		Recipient: ports.Recipient{
			DriverID:    kernel.NewUUID(),
			ExternalID:  "4242",
			DisplayName: "Marta",
		},
		Kind:        ports.NotificationSalaryDue,
		Text:        "2 payments due today",
		ActionToken: "tok_abcdefghijklmnopqrstu",
		PaymentIDs:  []kernel.UUID{kernel.NewUUID(), kernel.NewUUID()},
		DedupKey:    "salary-due:2026-03-05:0a1b2c3d",
		CreatedAt:   time.Date(2026, time.March, 5, 15, 0, 0, 0, time.UTC),
	}
}

func TestLog_Send(t *testing.T) {
	var buf bytes.Buffer
	n := notifier.NewLog(slog.New(slog.NewJSONHandler(&buf, nil)))
	msg := notification()

	require.NoError(t, n.Send(context.Background(), msg))

	out := buf.String()
	assert.Contains(t, out, `"kind":"salary-due"`)
	assert.Contains(t, out, msg.DedupKey)
	assert.NotContains(t, out, msg.ActionToken)
}

const getMeReply = `{"ok":true,"result":{"id":123,"is_bot":true,"first_name":"Lastmile","username":"lastmile_bot"}}`

type telegramCall struct {
	path   string
	form   url.Values
	markup map[string]any
}

// newTelegramServer answers getMe for the constructor and replies to every other method
// with status and reply.
func newTelegramServer(t *testing.T, status int, reply string) (*httptest.Server, chan telegramCall) {
	t.Helper()
	calls := make(chan telegramCall, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/getMe") {
			_, _ = w.Write([]byte(getMeReply))
			return
		}
		_ = r.ParseForm()
		call := telegramCall{path: r.URL.Path, form: r.PostForm}
		if raw := r.PostForm.Get("reply_markup"); raw != "" {
			_ = json.Unmarshal([]byte(raw), &call.markup)
		}
		calls <- call
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)
	return server, calls
}

const sentReply = `{"ok":true,"result":{"message_id":7,"date":1772722800,"chat":{"id":4242,"type":"private"}}}`

func TestTelegram_Send(t *testing.T) {
	t.Run("sends_message_with_keyboard", func(t *testing.T) {
		// Given
		server, calls := newTelegramServer(t, http.StatusOK, sentReply)
		n, err := notifier.NewTelegram(server.URL, "123:secret", time.Second)
		require.NoError(t, err)
		msg := notification()

		// When
		err = n.Send(context.Background(), msg)

		// Then
		require.NoError(t, err)
		call := <-calls
		assert.Equal(t, "/bot123:secret/sendMessage", call.path)
		assert.Equal(t, "4242", call.form.Get("chat_id"))
		assert.Equal(t, msg.Text, call.form.Get("text"))

		rows := call.markup["inline_keyboard"].([]any)
		require.Len(t, rows, 3)
		first := rows[0].([]any)[0].(map[string]any)
		assert.Equal(t, notifier.ConfirmSalaryCallback+msg.PaymentIDs[0].String(), first["callback_data"])
		last := rows[2].([]any)[0].(map[string]any)
		assert.Equal(t, notifier.ResolveTokenCallback+msg.ActionToken, last["callback_data"])
		assert.Equal(t, "Confirm all (2)", last["text"])
	})

	t.Run("no_keyboard_without_actions", func(t *testing.T) {
		server, calls := newTelegramServer(t, http.StatusOK, sentReply)
		n, err := notifier.NewTelegram(server.URL, "123:secret", time.Second)
		require.NoError(t, err)
		msg := notification()
		msg.PaymentIDs = nil
		msg.ActionToken = ""

		require.NoError(t, n.Send(context.Background(), msg))

		call := <-calls
		assert.NotContains(t, call.form, "reply_markup")
	})

	t.Run("channel_recipient", func(t *testing.T) {
		server, calls := newTelegramServer(t, http.StatusOK, sentReply)
		n, err := notifier.NewTelegram(server.URL, "123:secret", time.Second)
		require.NoError(t, err)
		msg := notification()
		msg.Recipient.ExternalID = "@lastmile_managers"

		require.NoError(t, n.Send(context.Background(), msg))

		assert.Equal(t, "@lastmile_managers", (<-calls).form.Get("chat_id"))
	})

	t.Run("error_status_carries_description", func(t *testing.T) {
		server, _ := newTelegramServer(t, http.StatusBadRequest,
			`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
		n, err := notifier.NewTelegram(server.URL, "123:secret", time.Second)
		require.NoError(t, err)

		err = n.Send(context.Background(), notification())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "chat not found")
		assert.Contains(t, err.Error(), "400")
	})

	t.Run("rejected_by_api", func(t *testing.T) {
		server, _ := newTelegramServer(t, http.StatusForbidden,
			`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`)
		n, err := notifier.NewTelegram(server.URL, "123:secret", time.Second)
		require.NoError(t, err)

		err = n.Send(context.Background(), notification())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "bot was blocked")
	})

	t.Run("deadline_is_honoured_and_token_redacted", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/getMe") {
				_, _ = w.Write([]byte(getMeReply))
				return
			}
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(server.Close)
		defer close(release)
		n, err := notifier.NewTelegram(server.URL, "123:secret", time.Minute)
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err = n.Send(ctx, notification())

		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotContains(t, err.Error(), "secret")
	})

	t.Run("recipient_without_chat", func(t *testing.T) {
		server, _ := newTelegramServer(t, http.StatusOK, sentReply)
		n, err := notifier.NewTelegram(server.URL, "123:secret", time.Second)
		require.NoError(t, err)
		msg := notification()
		msg.Recipient.ExternalID = " "

		err = n.Send(context.Background(), msg)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("recipient_is_not_a_chat_id", func(t *testing.T) {
		server, _ := newTelegramServer(t, http.StatusOK, sentReply)
		n, err := notifier.NewTelegram(server.URL, "123:secret", time.Second)
		require.NoError(t, err)
		msg := notification()
		msg.Recipient.ExternalID = "marta"

		err = n.Send(context.Background(), msg)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestNewTelegram(t *testing.T) {
	t.Run("requires_token", func(t *testing.T) {
		_, err := notifier.NewTelegram(notifier.DefaultTelegramAPIURL, "", time.Second)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("rejected_token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
		}))
		t.Cleanup(server.Close)

		_, err := notifier.NewTelegram(server.URL, "123:revoked", time.Second)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unauthorized")
	})
}

type fakePublisher struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (p *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	p.exchange, p.key, p.msg = exchange, key, msg
	return p.err
}

func TestAMQP_Send(t *testing.T) {
	t.Run("publishes_json_payload", func(t *testing.T) {
		// Given
		pub := &fakePublisher{}
		n, err := notifier.NewAMQP(pub, "", "lastmile.notifications")
		require.NoError(t, err)
		msg := notification()

		// When
		err = n.Send(context.Background(), msg)

		// Then
		require.NoError(t, err)
		assert.Equal(t, "lastmile.notifications", pub.key)
		assert.Equal(t, "application/json", pub.msg.ContentType)
		assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)
		assert.Equal(t, msg.DedupKey, pub.msg.MessageId)

		var body struct {
			Kind        string   `json:"kind"`
			ActionToken string   `json:"action_token"`
			PaymentIDs  []string `json:"payment_ids"`
			Recipient   struct {
				ExternalID string `json:"external_id"`
			} `json:"recipient"`
		}
		require.NoError(t, json.Unmarshal(pub.msg.Body, &body))
		assert.Equal(t, "salary-due", body.Kind)
		assert.Equal(t, msg.ActionToken, body.ActionToken)
		assert.Equal(t, []string{msg.PaymentIDs[0].String(), msg.PaymentIDs[1].String()}, body.PaymentIDs)
		assert.Equal(t, "4242", body.Recipient.ExternalID)
	})

	t.Run("publish_failure_is_returned", func(t *testing.T) {
		boom := errors.New("channel closed")
		n, err := notifier.NewAMQP(&fakePublisher{err: boom}, "", "lastmile.notifications")
		require.NoError(t, err)

		err = n.Send(context.Background(), notification())

		require.ErrorIs(t, err, boom)
	})

	t.Run("requires_routing_key", func(t *testing.T) {
		_, err := notifier.NewAMQP(&fakePublisher{}, "", "")

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}
