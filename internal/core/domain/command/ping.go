package command

import (
	"context"
	"time"
	"tradebot/internal/core/domain"
	"tradebot/internal/core/port"
)

const Pong = "Pong! 🏓"

type Ping struct {
	command string
}

func NewPing(command string) *Ping {
	return &Ping{command: command}
}

func (p *Ping) GetCommand() string {
	return p.command
}

func (p *Ping) Description() string {
	return "Check that the bot is alive"
}

func (p *Ping) Respond(ctx context.Context, _ time.Duration, _ *domain.Invocation, reply port.Replier) error {
	return reply.Reply(ctx, Pong)
}
