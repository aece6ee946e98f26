package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Telegram delivers alert bodies straight to a chat, bypassing the webhook
// relay.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegram creates a Telegram notifier from a bot token and chat ID.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "telegram").Logger(),
	}, nil
}

func (t *Telegram) Send(_ context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	t.logger.Debug().Int64("chat_id", t.chatID).Msg("Delivered telegram message")
	return nil
}
