package notify

import (
	"context"
	"fmt"

	"roomly/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier posts reservation events to an admin chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramNotifier(cfg config.TelegramConfig, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = cfg.Debug

	logger.Info().Str("bot", bot.Self.UserName).Int64("chat_id", cfg.AdminChat).Msg("telegram notifier ready")

	return &TelegramNotifier{
		bot:    bot,
		chatID: cfg.AdminChat,
		logger: logger,
	}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// NopNotifier is used when Telegram is disabled; deliveries succeed
// silently so the outbox drains.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, text string) error { return nil }
