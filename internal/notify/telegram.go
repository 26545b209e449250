package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier delivers reminders as messages to a single chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, deviceName, taskTitle string, due time.Time) error {
	var builder strings.Builder
	builder.WriteString("🔧 <b>Maintenance due</b>\n")
	builder.WriteString(fmt.Sprintf("%s — %s\n",
		html.EscapeString(strings.TrimSpace(deviceName)),
		html.EscapeString(strings.TrimSpace(taskTitle))))
	builder.WriteString(fmt.Sprintf("🗓 %s", due.Format("2006-01-02")))

	msg := tgbotapi.NewMessage(n.chatID, builder.String())
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	return nil
}
