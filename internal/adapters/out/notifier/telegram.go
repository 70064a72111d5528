package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lastmile/internal/core/ports"
	"lastmile/internal/pkg/errs"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	DefaultTelegramAPIURL = "https://api.telegram.org"

	// Callback data prefixes understood by the bot.
	ConfirmSalaryCallback = "confirm_salary:"
	ResolveTokenCallback  = "resolve_token:"
)

var _ ports.Notifier = (*Telegram)(nil)

// Telegram sends each notification as a Bot API message to the recipient's chat, with an
// inline keyboard confirming single payments or the whole batch.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	client *http.Client
}

// NewTelegram checks the token against getMe before returning.
func NewTelegram(apiURL, botToken string, timeout time.Duration) (*Telegram, error) {
	botToken = strings.TrimSpace(botToken)
	if botToken == "" {
		return nil, errs.NewValueIsRequiredError("telegram bot token")
	}
	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		apiURL = DefaultTelegramAPIURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	bot, err := tgbotapi.NewBotAPIWithClient(botToken, apiURL+"/bot%s/%s", client)
	if err != nil {
		// Transport errors carry the request URL, and with it the bot token.
		return nil, fmt.Errorf("telegram getMe: %w", redact(err))
	}
	return &Telegram{bot: bot, client: client}, nil
}

func (t *Telegram) Send(ctx context.Context, n ports.Notification) error {
	msg, err := message(n)
	if err != nil {
		return err
	}

	// BotAPI has no context-aware calls; a per-call copy routes this send through ctx.
	bot := *t.bot
	bot.Client = contextClient{ctx: ctx, client: t.client}
	if _, err = bot.Send(msg); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			return fmt.Errorf("telegram sendMessage rejected (%d): %s", apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("send telegram message to %s: %w", n.Recipient.ExternalID, redact(err))
	}
	return nil
}

// message addresses numeric chat ids directly and @names as channels.
func message(n ports.Notification) (tgbotapi.MessageConfig, error) {
	chat := strings.TrimSpace(n.Recipient.ExternalID)
	if chat == "" {
		return tgbotapi.MessageConfig{}, errs.NewValueIsRequiredError("recipient external id")
	}

	var msg tgbotapi.MessageConfig
	if strings.HasPrefix(chat, "@") {
		msg = tgbotapi.NewMessageToChannel(chat, n.Text)
	} else {
		chatID, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return tgbotapi.MessageConfig{}, errs.NewValueIsInvalidErrorWithCause("recipient external id", err)
		}
		msg = tgbotapi.NewMessage(chatID, n.Text)
	}
	if rows := keyboard(n); len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	return msg, nil
}

func keyboard(n ports.Notification) [][]tgbotapi.InlineKeyboardButton {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(n.PaymentIDs)+1)
	for i, id := range n.PaymentIDs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Confirm #%d", i+1), ConfirmSalaryCallback+id.String())))
	}
	if n.ActionToken != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Confirm all (%d)", len(n.PaymentIDs)),
				ResolveTokenCallback+n.ActionToken)))
	}
	return rows
}

// contextClient binds every request the bot makes to one caller's context.
type contextClient struct {
	ctx    context.Context
	client *http.Client
}

func (c contextClient) Do(req *http.Request) (*http.Response, error) {
	return c.client.Do(req.WithContext(c.ctx))
}

// redact drops the request URL from transport errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
