package notify

import (
	"fmt"
	"html"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"echoday/internal/model"
)

// TelegramDispatcher sends reminders as Telegram messages to the user's
// private chat.
type TelegramDispatcher struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

func NewTelegramDispatcher(token string, chatID int64, logger *slog.Logger) (*TelegramDispatcher, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &TelegramDispatcher{api: api, chatID: chatID, logger: logger}, nil
}

func (d *TelegramDispatcher) Notify(r model.ActiveReminder) {
	icon := "⏰"
	if r.Priority == model.PriorityHigh {
		icon = "🔥"
	}
	d.send(fmt.Sprintf("%s <b>%s</b>", icon, html.EscapeString(r.Message)))
}

func (d *TelegramDispatcher) NotifyText(message string) {
	d.send(html.EscapeString(message))
}

func (d *TelegramDispatcher) send(text string) {
	msg := tgbotapi.NewMessage(d.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := d.api.Send(msg); err != nil {
		d.logger.Error("telegram send failed", "error", err)
	}
}
