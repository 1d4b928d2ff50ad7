package sender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"tradebot/internal/core/domain"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

var ErrAlreadyResponded = errors.New("interaction already acknowledged")

// InteractionReplier answers a single interaction. The first answer uses the
// interaction callback, later ones are sent as followups.
type InteractionReplier struct {
	session     DiscordSession
	interaction *discordgo.Interaction
	mutex       *sync.Mutex
	responded   bool
}

func NewInteractionReplier(session DiscordSession, interaction *discordgo.Interaction) *InteractionReplier {
	return &InteractionReplier{
		session:     session,
		interaction: interaction,
		mutex:       &sync.Mutex{},
	}
}

func (r *InteractionReplier) Notice(ctx context.Context, text string) error {
	return r.send(ctx, &discordgo.InteractionResponseData{
		Content: text,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func (r *InteractionReplier) Reply(ctx context.Context, text string) error {
	return r.send(ctx, &discordgo.InteractionResponseData{Content: text})
}

func (r *InteractionReplier) Prompt(ctx context.Context, text string, buttons []domain.Button) error {
	return r.send(ctx, &discordgo.InteractionResponseData{
		Content:    text,
		Components: toComponents(buttons),
		Flags:      discordgo.MessageFlagsEphemeral,
	})
}

// OpenForm presents a modal. Platforms only accept a modal as the first answer.
func (r *InteractionReplier) OpenForm(ctx context.Context, form domain.Form) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.responded {
		return fmt.Errorf("%w: %w", domain.ErrExternalCollaborator, ErrAlreadyResponded)
	}

	err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: toModal(form),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: open form: %w", domain.ErrExternalCollaborator, err)
	}

	r.responded = true
	return nil
}

func (r *InteractionReplier) send(ctx context.Context, data *discordgo.InteractionResponseData) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.responded {
		err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		}, discordgo.WithContext(ctx))
		if err != nil {
			log.Error().Err(err).Str("interactionId", r.interaction.ID).Msg("failed to respond to interaction")
			return fmt.Errorf("%w: respond: %w", domain.ErrExternalCollaborator, err)
		}
		r.responded = true
		return nil
	}

	_, err := r.session.FollowupMessageCreate(r.interaction, false, &discordgo.WebhookParams{
		Content:    data.Content,
		Components: data.Components,
		Flags:      data.Flags,
	}, discordgo.WithContext(ctx))
	if err != nil {
		log.Error().Err(err).Str("interactionId", r.interaction.ID).Msg("failed to send followup")
		return fmt.Errorf("%w: followup: %w", domain.ErrExternalCollaborator, err)
	}

	return nil
}
