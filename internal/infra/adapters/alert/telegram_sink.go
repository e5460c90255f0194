package alert

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"tenant-fanout-pipeline/internal/domain/model"
	"tenant-fanout-pipeline/internal/domain/ports/adapter"
)

var _ adapter.AlertSink = (*TelegramSink)(nil)

// TelegramSink posts dead-letter alerts to an operator chat.
type TelegramSink struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *zerolog.Logger
}

func NewTelegramSink(token string, chatID int64, logger *zerolog.Logger) (*TelegramSink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	sinkLog := logger.With().Str("component", "TelegramSink").Logger()
	return &TelegramSink{bot: bot, chatID: chatID, log: &sinkLog}, nil
}

func (s *TelegramSink) Send(ctx context.Context, alert model.Alert) error {
	text := fmt.Sprintf("[%s] %s\ntenant: %s\n%s", alert.Severity, alert.Title, alert.TenantID, alert.Description)
	msg := tgbotapi.NewMessage(s.chatID, text)
	if _, err := s.bot.Send(msg); err != nil {
		return err
	}
	s.log.Debug().Str("tenant_id", alert.TenantID).Msg("alert delivered")
	return nil
}
