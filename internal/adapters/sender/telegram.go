package sender

import (
	"context"
	"fmt"
	"tradebot/internal/core/domain"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

//go:generate mockery --name TelegramBot

type TelegramBot interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

const TelegramMessageLimit = 4096

// TelegramRelay forwards staff notifications to a Telegram chat.
type TelegramRelay struct {
	bot    TelegramBot
	chatID int64
}

func NewTelegramRelay(b TelegramBot) *TelegramRelay {
	return &TelegramRelay{bot: b, chatID: viper.GetInt64("telegram.staff_chat_id")}
}

func (s *TelegramRelay) NotifyStaff(ctx context.Context, text string) error {
	for _, chunk := range chunkText(text, TelegramMessageLimit) {
		_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: s.chatID,
			Text:   chunk,
		})
		if err != nil {
			log.Error().Err(err).Int64("chatId", s.chatID).Msg("failed to relay staff notification")
			return fmt.Errorf("%w: telegram: %w", domain.ErrExternalCollaborator, err)
		}
	}

	return nil
}
