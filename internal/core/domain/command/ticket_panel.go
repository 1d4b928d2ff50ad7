package command

import (
	"context"
	"fmt"
	"time"
	"tradebot/internal/core/domain"
	"tradebot/internal/core/port"
	"tradebot/internal/core/service"

	"github.com/rs/zerolog/log"
)

// TicketPanel posts the support panel with its open-ticket button. Staff only.
type TicketPanel struct {
	messenger port.Messenger
	auth      service.Authorizer
	command   string
}

func NewTicketPanel(messenger port.Messenger, auth service.Authorizer, command string) *TicketPanel {
	return &TicketPanel{messenger: messenger, auth: auth, command: command}
}

func (t *TicketPanel) GetCommand() string {
	return t.command
}

func (t *TicketPanel) Description() string {
	return "Post the support ticket panel in this channel"
}

func (t *TicketPanel) Respond(ctx context.Context, timeout time.Duration, inv *domain.Invocation,
	reply port.Replier) error {
	l := log.With().
		Str("userId", inv.User.ID).
		Str("channelId", inv.ChannelID).
		Str("command", t.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if !t.auth.Authorize(ctx, inv.User.ID, reply) {
		l.Debug().Msg("not authorized")
		return nil
	}

	_, err := t.messenger.SendPost(ctx, inv.ChannelID, service.TicketPanelPost())
	if err != nil {
		err = fmt.Errorf("%w: posting ticket panel: %w", domain.ErrExternalCollaborator, err)
		return notifyAndReturnError(ctx, err, inv, reply)
	}

	return reply.Notice(ctx, "Ticket panel posted.")
}
