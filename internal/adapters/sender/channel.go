package sender

import (
	"context"
	"errors"
	"fmt"
	"tradebot/internal/core/domain"

	"github.com/bwmarrin/discordgo"
)

var ErrFormUnsupported = errors.New("forms need a slash command")

// ChannelReplier answers prefix commands typed as plain channel messages.
type ChannelReplier struct {
	session   DiscordSession
	channelID string
	messageID string
}

func NewChannelReplier(session DiscordSession, channelID, messageID string) *ChannelReplier {
	return &ChannelReplier{session: session, channelID: channelID, messageID: messageID}
}

func (r *ChannelReplier) Notice(ctx context.Context, text string) error {
	return r.Reply(ctx, text)
}

func (r *ChannelReplier) Reply(ctx context.Context, text string) error {
	return r.send(ctx, &discordgo.MessageSend{Content: text})
}

func (r *ChannelReplier) Prompt(ctx context.Context, text string, buttons []domain.Button) error {
	return r.send(ctx, &discordgo.MessageSend{Content: text, Components: toComponents(buttons)})
}

func (r *ChannelReplier) OpenForm(context.Context, domain.Form) error {
	return fmt.Errorf("%w: %w", domain.ErrValidation, ErrFormUnsupported)
}

func (r *ChannelReplier) send(ctx context.Context, data *discordgo.MessageSend) error {
	if r.messageID != "" {
		data.Reference = &discordgo.MessageReference{MessageID: r.messageID, ChannelID: r.channelID}
	}

	_, err := r.session.ChannelMessageSendComplex(r.channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: channel reply: %w", domain.ErrExternalCollaborator, err)
	}

	return nil
}
