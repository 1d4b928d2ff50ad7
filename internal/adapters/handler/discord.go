package handler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
	"tradebot/internal/core/domain"
	"tradebot/internal/core/domain/command"
	"tradebot/internal/core/port"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// PrefixCommands may also be invoked as plain messages starting with Prefix.
var PrefixCommands = map[string]bool{"ping": true}

const Prefix = "!"

type Router interface {
	Route(ctx context.Context, in *domain.Interaction, reply port.Replier) error
	Submit(ctx context.Context, sub *domain.FormSubmission, reply port.Replier) error
}

type ReactionHandler interface {
	HandleReaction(ctx context.Context, ev domain.ReactionEvent) error
}

type Params struct {
	Commands  port.CommandRegistry
	Router    Router
	Reactions ReactionHandler
	// Replier builds the replier for an interaction.
	Replier func(i *discordgo.Interaction) port.Replier
	// ChannelReplier builds the replier for a prefix command message.
	ChannelReplier func(channelID, messageID string) port.Replier
	Timeout        time.Duration
	// OnReady is called with the bot's user id once the gateway session is ready.
	OnReady []func(userID string)
}

// Discord translates gateway events into invocations of the core services.
type Discord struct {
	ctx   context.Context
	p     Params
	botID atomic.Value
}

func NewDiscord(ctx context.Context, p Params) *Discord {
	return &Discord{ctx: ctx, p: p}
}

func (d *Discord) botUser() string {
	id, _ := d.botID.Load().(string)
	return id
}

func (d *Discord) OnReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User == nil {
		return
	}

	d.botID.Store(r.User.ID)
	for _, hook := range d.p.OnReady {
		hook(r.User.ID)
	}

	log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("gateway session ready")
}

func (d *Discord) OnInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Interaction == nil {
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		d.handleCommand(i.Interaction)
	case discordgo.InteractionMessageComponent:
		d.handleComponent(i.Interaction)
	case discordgo.InteractionModalSubmit:
		d.handleModal(i.Interaction)
	default:
		log.Debug().Str("type", i.Type.String()).Msg("ignoring interaction type")
	}
}

func (d *Discord) handleCommand(i *discordgo.Interaction) {
	data := i.ApplicationCommandData()

	log.Debug().Str("command", data.Name).Msg("received command")

	cmd, err := d.p.Commands.Get(data.Name)
	if err != nil {
		log.Debug().Str("command", data.Name).Msg("no handler for command")
		return
	}

	inv := &domain.Invocation{
		ID:        i.ID,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		User:      toUser(i),
		Command:   data.Name,
		Options:   toOptions(data.Options),
	}
	reply := d.p.Replier(i)

	d.spawn("command "+data.Name, func() error {
		return cmd.Respond(d.ctx, d.p.Timeout, inv, reply)
	})
}

func (d *Discord) handleComponent(i *discordgo.Interaction) {
	data := i.MessageComponentData()

	in := &domain.Interaction{
		ID:        i.ID,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		User:      toUser(i),
		CustomID:  data.CustomID,
	}
	if i.Message != nil {
		in.MessageID = i.Message.ID
	}
	reply := d.p.Replier(i)

	d.spawn("component "+data.CustomID, func() error {
		ctx, cancel := context.WithTimeout(d.ctx, d.p.Timeout)
		defer cancel()
		return d.p.Router.Route(ctx, in, reply)
	})
}

func (d *Discord) handleModal(i *discordgo.Interaction) {
	data := i.ModalSubmitData()

	sub := &domain.FormSubmission{
		FormID:    domain.FormID(data.CustomID),
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		User:      toUser(i),
		Values:    modalValues(data.Components),
	}
	reply := d.p.Replier(i)

	d.spawn("form "+data.CustomID, func() error {
		ctx, cancel := context.WithTimeout(d.ctx, d.p.Timeout)
		defer cancel()
		return d.p.Router.Submit(ctx, sub, reply)
	})
}

func (d *Discord) OnReactionAdd(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.MessageReaction != nil {
		d.handleReaction(r.MessageReaction, true)
	}
}

func (d *Discord) OnReactionRemove(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if r.MessageReaction != nil {
		d.handleReaction(r.MessageReaction, false)
	}
}

func (d *Discord) handleReaction(r *discordgo.MessageReaction, added bool) {
	if r.UserID == d.botUser() {
		return
	}

	ev := domain.ReactionEvent{
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.Name,
		Added:     added,
	}

	d.spawn("reaction", func() error {
		ctx, cancel := context.WithTimeout(d.ctx, d.p.Timeout)
		defer cancel()
		return d.p.Reactions.HandleReaction(ctx, ev)
	})
}

func (d *Discord) OnMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil || m.Author == nil || m.Author.Bot {
		return
	}

	name := command.ParseCommand(Prefix, m.Content)
	if !PrefixCommands[name] {
		return
	}

	cmd, err := d.p.Commands.Get(name)
	if err != nil {
		log.Debug().Str("command", name).Msg("no handler for prefix command")
		return
	}

	inv := &domain.Invocation{
		ID:        m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		User:      domain.User{ID: m.Author.ID, Username: m.Author.Username, Bot: m.Author.Bot},
		Command:   name,
	}
	reply := d.p.ChannelReplier(m.ChannelID, m.ID)

	d.spawn("prefix command "+name, func() error {
		return cmd.Respond(d.ctx, d.p.Timeout, inv, reply)
	})
}

func (d *Discord) spawn(what string, fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("handler", what).Interface("panic", r).Msg("recovered from panic in event handler")
			}
		}()

		if err := fn(); err != nil {
			log.Err(err).Str("handler", what).Msg("failed to handle event")
		}
	}()
}

func toUser(i *discordgo.Interaction) domain.User {
	u := i.User
	if i.Member != nil && i.Member.User != nil {
		u = i.Member.User
	}
	if u == nil {
		return domain.User{}
	}

	return domain.User{ID: u.ID, Username: u.Username, Bot: u.Bot}
}

func toOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	values := make(map[string]string, len(opts))
	for _, o := range opts {
		if o != nil {
			values[o.Name] = fmt.Sprint(o.Value)
		}
	}

	return values
}

// modalValues collects the text inputs of a submitted modal keyed by input id.
func modalValues(components []discordgo.MessageComponent) map[string]string {
	values := make(map[string]string)

	var walk func([]discordgo.MessageComponent)
	walk = func(cs []discordgo.MessageComponent) {
		for _, c := range cs {
			switch v := c.(type) {
			case *discordgo.ActionsRow:
				walk(v.Components)
			case discordgo.ActionsRow:
				walk(v.Components)
			case *discordgo.TextInput:
				values[v.CustomID] = v.Value
			case discordgo.TextInput:
				values[v.CustomID] = v.Value
			}
		}
	}
	walk(components)

	return values
}
