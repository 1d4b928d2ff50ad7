package sender

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync/atomic"
	"time"
	"tradebot/internal/core/domain"

	"github.com/bwmarrin/discordgo"
	"github.com/codeGROOVE-dev/retry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

//go:generate mockery --name DiscordSession

// DiscordSession is the subset of *discordgo.Session used to render and inspect posts.
type DiscordSession interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend,
		options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string,
		options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData,
		options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse,
		options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams,
		options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordMessageLimit is the maximum length of a plain message.
const DiscordMessageLimit = 2000

const maxRetryDelay = 5 * time.Second

// maxFetchLimit is the largest page the channel messages endpoint returns.
const maxFetchLimit = 100

type Discord struct {
	session  DiscordSession
	guildID  string
	botID    atomic.Value
	attempts uint
	delay    time.Duration
}

func NewDiscord(session DiscordSession) *Discord {
	return &Discord{
		session:  session,
		guildID:  viper.GetString("discord.guild_id"),
		attempts: viper.GetUint("retry.attempts"),
		delay:    viper.GetDuration("retry.delay"),
	}
}

// SetBotUser records the bot's own user id once the gateway reports it.
func (d *Discord) SetBotUser(id string) {
	d.botID.Store(id)
}

func (d *Discord) botUser() string {
	id, _ := d.botID.Load().(string)
	return id
}

func (d *Discord) SendPost(ctx context.Context, channelID string, post domain.Post) (domain.MessageRef, error) {
	var msg *discordgo.Message

	err := d.do(ctx, "send post", func() error {
		var err error
		msg, err = d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
			Embeds:     []*discordgo.MessageEmbed{toEmbed(post)},
			Components: toComponents(post.Buttons),
		}, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return domain.MessageRef{}, err
	}

	return domain.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

func (d *Discord) EditPost(ctx context.Context, ref domain.MessageRef, post domain.Post) error {
	embeds := []*discordgo.MessageEmbed{toEmbed(post)}
	components := toComponents(post.Buttons)

	return d.do(ctx, "edit post", func() error {
		_, err := d.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
			ID:         ref.MessageID,
			Channel:    ref.ChannelID,
			Embeds:     &embeds,
			Components: &components,
		}, discordgo.WithContext(ctx))
		return err
	})
}

func (d *Discord) DeleteMessage(ctx context.Context, ref domain.MessageRef) error {
	return d.do(ctx, "delete message", func() error {
		err := d.session.ChannelMessageDelete(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx))
		if isUnknown(err) {
			log.Debug().Str("messageId", ref.MessageID).Msg("message already deleted")
			return nil
		}
		return err
	})
}

func (d *Discord) SendDirectMessage(ctx context.Context, userID string, text string) error {
	return d.do(ctx, "send direct message", func() error {
		ch, err := d.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
		if err != nil {
			return err
		}

		for _, chunk := range chunkText(text, DiscordMessageLimit) {
			if _, err := d.session.ChannelMessageSend(ch.ID, chunk, discordgo.WithContext(ctx)); err != nil {
				return err
			}
		}

		return nil
	})
}

func (d *Discord) AddReaction(ctx context.Context, ref domain.MessageRef, emoji string) error {
	return d.do(ctx, "add reaction", func() error {
		return d.session.MessageReactionAdd(ref.ChannelID, ref.MessageID, emoji, discordgo.WithContext(ctx))
	})
}

func (d *Discord) CreateChannel(ctx context.Context, spec domain.ChannelSpec) (string, error) {
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: d.guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
	}

	members := slices.Clone(spec.Members)
	if bot := d.botUser(); bot != "" {
		members = append(members, bot)
	}
	for _, id := range members {
		if id == "" {
			continue
		}
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:   id,
			Type: discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
				discordgo.PermissionReadMessageHistory,
		})
	}

	var ch *discordgo.Channel
	err := d.do(ctx, "create channel", func() error {
		var err error
		ch, err = d.session.GuildChannelCreateComplex(d.guildID, discordgo.GuildChannelCreateData{
			Name:                 spec.Name,
			Type:                 discordgo.ChannelTypeGuildText,
			Topic:                spec.Topic,
			ParentID:             spec.ParentID,
			PermissionOverwrites: overwrites,
		}, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return "", err
	}

	return ch.ID, nil
}

func (d *Discord) DeleteChannel(ctx context.Context, channelID string) error {
	return d.do(ctx, "delete channel", func() error {
		_, err := d.session.ChannelDelete(channelID, discordgo.WithContext(ctx))
		if isUnknown(err) {
			return nil
		}
		return err
	})
}

func (d *Discord) FetchRecentMessages(ctx context.Context, channelID string, limit int) ([]domain.RenderedMessage, error) {
	if limit <= 0 || limit > maxFetchLimit {
		limit = maxFetchLimit
	}

	var msgs []*discordgo.Message
	err := d.do(ctx, "fetch messages", func() error {
		var err error
		msgs, err = d.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return nil, err
	}

	rendered := make([]domain.RenderedMessage, 0, len(msgs))
	for _, m := range msgs {
		rendered = append(rendered, d.toRendered(m))
	}

	return rendered, nil
}

func (d *Discord) FetchMessage(ctx context.Context, ref domain.MessageRef) (domain.RenderedMessage, error) {
	var msg *discordgo.Message
	err := d.do(ctx, "fetch message", func() error {
		var err error
		msg, err = d.session.ChannelMessage(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return domain.RenderedMessage{}, err
	}

	return d.toRendered(msg), nil
}

func (d *Discord) FetchReactionCount(ctx context.Context, ref domain.MessageRef, emoji string) (int, error) {
	m, err := d.FetchMessage(ctx, ref)
	if err != nil {
		return 0, err
	}

	return m.Reactions[emoji], nil
}

// do runs fn with retries. Client errors other than rate limits are not retried.
func (d *Discord) do(ctx context.Context, op string, fn func() error) error {
	attempts := d.attempts
	if attempts == 0 {
		attempts = 1
	}
	delay := d.delay
	if delay <= 0 {
		delay = time.Millisecond
	}

	err := retry.Do(
		fn,
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.MaxDelay(maxRetryDelay),
		retry.MaxJitter(delay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Err(err).Uint("attempt", n).Str("op", op).Msg("retrying discord call")
		}),
		retry.RetryIf(isRetryable),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrExternalCollaborator, op, err)
	}

	return nil
}

func isRetryable(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		code := restErr.Response.StatusCode
		return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
	}

	return true
}

func isUnknown(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}

	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return true
		}
	}

	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
