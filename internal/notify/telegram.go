package notify

import (
	"context"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// APIClient returns the HTTP client every Bot API call runs on. The
// timeout bounds a hung send; it must stay above the 30s long-poll
// window the update loop requests, or GetUpdates would never complete.
func APIClient() *http.Client {
	return &http.Client{Timeout: 40 * time.Second}
}

// TelegramTransport delivers messages through the Bot API. Sends are rate
// limited below the Bot API flood threshold. A message the API rejects
// for Markdown parse errors is retried once as plain text; any other
// failure is reported to the dispatcher, which drops the delivery.
type TelegramTransport struct {
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewTelegramTransport(api *tgbotapi.BotAPI, logger *zap.Logger) *TelegramTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelegramTransport{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(25), 5),
		logger:  logger,
	}
}

func (t *TelegramTransport) Send(ctx context.Context, chatID int64, text string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	_, err := t.api.Send(msg)
	if err == nil {
		return nil
	}

	if strings.Contains(strings.ToLower(err.Error()), "can't parse entities") {
		t.logger.Warn("markdown rejected, resending plain",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		plain := tgbotapi.NewMessage(chatID, StripMarkdown(text))
		plain.DisableWebPagePreview = true
		_, err = t.api.Send(plain)
	}
	return err
}
