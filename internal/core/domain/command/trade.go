package command

import (
	"context"
	"fmt"
	"strings"
	"time"
	"tradebot/internal/core/domain"
	"tradebot/internal/core/port"

	"github.com/rs/zerolog/log"
)

// Trade opens the trade form.
type Trade struct {
	command string
}

func NewTrade(command string) *Trade {
	return &Trade{command: command}
}

func (t *Trade) GetCommand() string {
	return t.command
}

func (t *Trade) Description() string {
	return "Post a trade offer"
}

func (t *Trade) Respond(ctx context.Context, _ time.Duration, inv *domain.Invocation, reply port.Replier) error {
	log.Info().Str("userId", inv.User.ID).Str("command", t.command).Msg("handling request")

	return reply.OpenForm(ctx, domain.NewTradeForm())
}

type TradeLister interface {
	TradesByOwner(ownerID string) []domain.TradeListing
}

// MyTrade shows the caller their active listing.
type MyTrade struct {
	trades  TradeLister
	command string
}

func NewMyTrade(trades TradeLister, command string) *MyTrade {
	return &MyTrade{trades: trades, command: command}
}

func (m *MyTrade) GetCommand() string {
	return m.command
}

func (m *MyTrade) Description() string {
	return "Show your active trade offer"
}

func (m *MyTrade) Respond(ctx context.Context, _ time.Duration, inv *domain.Invocation, reply port.Replier) error {
	trades := m.trades.TradesByOwner(inv.User.ID)
	if len(trades) == 0 {
		return reply.Notice(ctx, "You have no active trade. Use /trade to post one.")
	}

	var sb strings.Builder
	for _, t := range trades {
		fmt.Fprintf(&sb, "**Wants:** %s\n**Offers:** %s\n", t.Fields.Wants, t.Fields.Offers)
		if t.Fields.Description != "" {
			fmt.Fprintf(&sb, "%s\n", t.Fields.Description)
		}
		fmt.Fprintf(&sb, "Posted <t:%d:R>", t.CreatedAt.Unix())
		if !t.Message.IsZero() {
			fmt.Fprintf(&sb, " in <#%s>", t.Message.ChannelID)
		}
	}

	return reply.Notice(ctx, sb.String())
}
