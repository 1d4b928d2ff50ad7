package command

import (
	"context"
	"time"
	"tradebot/internal/core/domain"
	"tradebot/internal/core/port"
)

type Suggest struct {
	command string
}

func NewSuggest(command string) *Suggest {
	return &Suggest{command: command}
}

func (s *Suggest) GetCommand() string {
	return s.command
}

func (s *Suggest) Description() string {
	return "Make a suggestion for the server"
}

func (s *Suggest) Respond(ctx context.Context, _ time.Duration, _ *domain.Invocation, reply port.Replier) error {
	return reply.OpenForm(ctx, domain.NewSuggestionForm())
}
